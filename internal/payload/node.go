// Package payload описывает разобранное тело ответа API как размеченный вариант
// (объект / список / скаляр / сырой текст) с сохранением порядка ключей.
package payload

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind вид узла
type Kind int

const (
	KindMissing Kind = iota // поле отсутствует
	KindNull
	KindBool
	KindNumber
	KindString
	KindObject
	KindList
	KindText // тело ответа не является JSON
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	case KindText:
		return "text"
	default:
		return "missing"
	}
}

// Node узел разобранного ответа. Нулевое значение - отсутствующее поле.
type Node struct {
	res  gjson.Result
	text string
	kind Kind
}

// Parse разбирает тело ответа. Невалидный JSON превращается в KindText.
func Parse(body []byte) Node {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !gjson.ValidBytes(trimmed) {
		return Text(string(body))
	}
	return fromResult(gjson.ParseBytes(trimmed))
}

// MustParse разбирает строку JSON; удобно для тестов и констант
func MustParse(s string) Node {
	return Parse([]byte(s))
}

// Text создает узел с сырым текстом ответа
func Text(s string) Node {
	return Node{text: s, kind: KindText}
}

func fromResult(r gjson.Result) Node {
	if !r.Exists() {
		return Node{}
	}
	n := Node{res: r}
	switch r.Type {
	case gjson.Null:
		n.kind = KindNull
	case gjson.True, gjson.False:
		n.kind = KindBool
	case gjson.Number:
		n.kind = KindNumber
	case gjson.String:
		n.kind = KindString
	case gjson.JSON:
		if r.IsArray() {
			n.kind = KindList
		} else {
			n.kind = KindObject
		}
	}
	return n
}

// Kind возвращает вид узла
func (n Node) Kind() Kind { return n.kind }

// Exists сообщает, присутствует ли значение
func (n Node) Exists() bool { return n.kind != KindMissing }

// IsObject / IsList
func (n Node) IsObject() bool { return n.kind == KindObject }
func (n Node) IsList() bool   { return n.kind == KindList }

// Field возвращает непосредственное поле объекта. Для не-объектов - отсутствующий узел.
// Ключ сравнивается буквально, без синтаксиса путей gjson.
func (n Node) Field(key string) Node {
	if n.kind != KindObject {
		return Node{}
	}
	var found gjson.Result
	n.res.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			found = v
			return false
		}
		return true
	})
	return fromResult(found)
}

// Fields обходит поля объекта в порядке документа, пока fn возвращает true
func (n Node) Fields(fn func(key string, value Node) bool) {
	if n.kind != KindObject {
		return
	}
	n.res.ForEach(func(k, v gjson.Result) bool {
		return fn(k.String(), fromResult(v))
	})
}

// Items возвращает элементы списка
func (n Node) Items() []Node {
	if n.kind != KindList {
		return nil
	}
	arr := n.res.Array()
	out := make([]Node, 0, len(arr))
	for _, v := range arr {
		out = append(out, fromResult(v))
	}
	return out
}

// Len длина списка или число полей объекта
func (n Node) Len() int {
	switch n.kind {
	case KindList:
		return len(n.res.Array())
	case KindObject:
		c := 0
		n.res.ForEach(func(_, _ gjson.Result) bool { c++; return true })
		return c
	}
	return 0
}

// String текстовое представление скаляра: строка без кавычек, число в исходной записи.
// Для отсутствующего значения и null - пустая строка.
func (n Node) String() string {
	switch n.kind {
	case KindMissing, KindNull:
		return ""
	case KindText:
		return n.text
	case KindString:
		return n.res.Str
	default:
		return strings.TrimSpace(n.res.Raw)
	}
}

// Raw исходный JSON узла
func (n Node) Raw() string {
	if n.kind == KindText {
		return n.text
	}
	return strings.TrimSpace(n.res.Raw)
}

// IsEmpty истинно для отсутствующих, null, пустых строк и пустых списков
func (n Node) IsEmpty() bool {
	switch n.kind {
	case KindMissing, KindNull:
		return true
	case KindString:
		return n.res.Str == ""
	case KindList:
		return n.Len() == 0
	}
	return false
}

// Truthy истинность значения: false, 0, "", пустые списки и объекты ложны
func (n Node) Truthy() bool {
	switch n.kind {
	case KindMissing, KindNull:
		return false
	case KindBool:
		return n.res.Bool()
	case KindNumber:
		return n.res.Num != 0
	case KindString:
		return n.res.Str != ""
	case KindList, KindObject:
		return n.Len() > 0
	case KindText:
		return n.text != ""
	}
	return false
}

// Or возвращает n, если оно истинно, иначе fallback
func (n Node) Or(fallback Node) Node {
	if n.Truthy() {
		return n
	}
	return fallback
}

// MarshalJSON сериализует узел. Отсутствующее значение пишется как null,
// строки (и ключи, и значения на любой глубине) перекодируются без
// экранирования не-ASCII и HTML символов. Числа сохраняют исходную запись.
func (n Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n Node) encode(buf *bytes.Buffer) error {
	switch n.kind {
	case KindMissing:
		buf.WriteString("null")
	case KindString:
		return encodeString(buf, n.res.Str)
	case KindText:
		return encodeString(buf, n.text)
	case KindObject:
		buf.WriteByte('{')
		first := true
		var err error
		n.Fields(func(k string, v Node) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err = encodeString(buf, k); err != nil {
				return false
			}
			buf.WriteByte(':')
			err = v.encode(buf)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	case KindList:
		buf.WriteByte('[')
		for i, item := range n.Items() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		buf.WriteString(n.Raw())
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
