package archive

import (
	"fmt"
	"path"
	"strings"

	"github.com/bigkaa/goartstore/document-module/internal/domain/model"
)

// entryLabel — имя записи в архиве: метка файла или basename URI.
// Разделители пути заменяются, чтобы запись не создавала подкаталогов.
func entryLabel(file *model.StoredFile) string {
	label := strings.TrimSpace(file.Label)
	if label == "" {
		label = file.URI
		if i := strings.LastIndex(label, "/"); i >= 0 {
			label = label[i+1:]
		}
	}
	label = strings.NewReplacer("/", "_", "\\", "_").Replace(label)
	if label == "" || label == "." || label == ".." {
		label = "file"
	}
	return label
}

// entryNames гарантирует уникальность имён записей архива.
type entryNames struct {
	used map[string]struct{}
}

func newEntryNames() *entryNames {
	return &entryNames{used: make(map[string]struct{})}
}

// unique возвращает name или name (n).ext, если имя уже занято.
// Сравнение без учёта регистра: распаковка на нечувствительных ФС.
func (n *entryNames) unique(name string) string {
	candidate := name
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		key := strings.ToLower(candidate)
		if _, taken := n.used[key]; !taken {
			n.used[key] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s (%d)%s", base, i, ext)
	}
}
