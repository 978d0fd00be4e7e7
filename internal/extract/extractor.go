// Package extract находит в ответе произвольной формы список записей,
// который является полезной нагрузкой.
package extract

import (
	"fmt"
	"strconv"

	"github.com/athebyme/gomarket-platform/harvester/internal/payload"
	"github.com/athebyme/gomarket-platform/harvester/internal/utils"
)

// RootListPath путь кандидата, когда сам корень ответа является списком записей
const RootListPath = "<root_list>"

// maxExplored ограничивает число путей, сохраняемых в ошибке
const maxExplored = 32

// DefaultPriorityKeys ключи конверта по умолчанию
var DefaultPriorityKeys = []string{"result", "items", "data"}

// ClusterPriorityKeys ключи для /v1/cluster/list
var ClusterPriorityKeys = []string{"clusters", "items", "result", "data"}

// Match найденный список записей и путь к нему
type Match struct {
	Records []payload.Node
	Path    string
}

// NotFoundError в ответе нет ни одного списка объектов
type NotFoundError struct {
	RootKind payload.Kind
	Explored []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: root %s, explored %v", utils.ErrExtractionFailed, e.RootKind, e.Explored)
}

func (e *NotFoundError) Unwrap() error { return utils.ErrExtractionFailed }

// Extractor эвристический поиск списка записей
type Extractor struct {
	keys []string
}

// New создает экстрактор с заданными приоритетными ключами.
// Без ключей используются DefaultPriorityKeys.
func New(priorityKeys ...string) *Extractor {
	if len(priorityKeys) == 0 {
		priorityKeys = DefaultPriorityKeys
	}
	keys := make([]string, len(priorityKeys))
	copy(keys, priorityKeys)
	return &Extractor{keys: keys}
}

type walker struct {
	keys     []string
	best     *Match
	explored []string
}

// Extract возвращает самый длинный однородный список объектов.
// При равной длине побеждает первый найденный при обходе в глубину.
func (e *Extractor) Extract(root payload.Node) (Match, error) {
	w := &walker{keys: e.keys}
	w.walk(root, "")
	if w.best == nil {
		return Match{}, &NotFoundError{RootKind: root.Kind(), Explored: w.explored}
	}
	return *w.best, nil
}

func (w *walker) walk(n payload.Node, path string) {
	switch n.Kind() {
	case payload.KindObject:
		w.visit(path)
		for _, k := range w.keys {
			if v := n.Field(k); isRecordList(v) {
				w.consider(v, join(path, k))
			}
		}
		n.Fields(func(k string, v payload.Node) bool {
			w.walk(v, join(path, k))
			return true
		})
	case payload.KindList:
		w.visit(path)
		if isRecordList(n) {
			p := path
			if p == "" {
				p = RootListPath
			}
			w.consider(n, p)
			return
		}
		for i, item := range n.Items() {
			w.walk(item, path+"["+strconv.Itoa(i)+"]")
		}
	}
}

func (w *walker) consider(list payload.Node, path string) {
	items := list.Items()
	if items == nil {
		items = []payload.Node{}
	}
	if w.best == nil || len(items) > len(w.best.Records) {
		w.best = &Match{Records: items, Path: path}
	}
}

func (w *walker) visit(path string) {
	if len(w.explored) >= maxExplored {
		return
	}
	if path == "" {
		path = "$"
	}
	w.explored = append(w.explored, path)
}

// isRecordList истинно для списка, все элементы которого объекты.
// Пустой список тоже считается списком записей.
func isRecordList(n payload.Node) bool {
	if !n.IsList() {
		return false
	}
	for _, item := range n.Items() {
		if !item.IsObject() {
			return false
		}
	}
	return true
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// RequireAnyField оставляет записи, в которых есть хотя бы одно из ожидаемых полей
func RequireAnyField(records []payload.Node, keys ...string) []payload.Node {
	out := make([]payload.Node, 0, len(records))
	for _, r := range records {
		for _, k := range keys {
			if r.Field(k).Exists() {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
