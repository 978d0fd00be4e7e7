package payload

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Float приводит число или числовую строку к float64.
// NaN и бесконечности считаются отсутствующим значением.
func (n Node) Float() (float64, bool) {
	var f float64
	switch n.kind {
	case KindNumber:
		f = n.res.Num
	case KindString:
		v, err := strconv.ParseFloat(strings.TrimSpace(n.res.Str), 64)
		if err != nil {
			return 0, false
		}
		f = v
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int приводит значение к int64: дробные числа усекаются,
// строки принимаются только в целочисленной записи.
func (n Node) Int() (int64, bool) {
	switch n.kind {
	case KindNumber:
		raw := n.Raw()
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i, true
		}
		f := n.res.Num
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(n.res.Str), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// FloatPtr возвращает указатель на число или nil
func FloatPtr(n Node) *float64 {
	if f, ok := n.Float(); ok {
		return &f
	}
	return nil
}

// IntPtr возвращает указатель на целое или nil
func IntPtr(n Node) *int64 {
	if i, ok := n.Int(); ok {
		return &i
	}
	return nil
}

// NormalizeSKU принимает только положительное целое, записанное цифрами.
// "123" и 123 дают 123; "0", "-5", "abc", 12.5, null - отсутствие значения.
func NormalizeSKU(n Node) (int64, bool) {
	switch n.kind {
	case KindNumber, KindString:
	default:
		return 0, false
	}

	s := strings.TrimSpace(n.String())
	if s == "" || !isDigits(s) {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// IsDigits сообщает, состоит ли текст узла только из десятичных цифр
func IsDigits(n Node) bool {
	switch n.kind {
	case KindNumber, KindString:
		return isDigits(n.String())
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Pick возвращает первое непустое поле объекта из перечисленных
func Pick(obj Node, keys ...string) (Node, bool) {
	for _, k := range keys {
		if v := obj.Field(k); !v.IsEmpty() {
			return v, true
		}
	}
	return Node{}, false
}

// NumericID возвращает идентификатор из одних цифр как число, иначе исходное значение.
// "154" и 154 дают 154, "A-1" остается строкой.
func NumericID(n Node) Node {
	if !IsDigits(n) {
		return n
	}
	s := strings.TrimLeft(n.String(), "0")
	if s == "" {
		s = "0"
	}
	return fromResult(gjson.Parse(s))
}
