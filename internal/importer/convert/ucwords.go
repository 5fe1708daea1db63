package convert

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// UnexpectedTypeError — значение не того типа, который ожидает конвертер.
type UnexpectedTypeError struct {
	Value    any
	Expected string
}

func (e *UnexpectedTypeError) Error() string {
	return fmt.Sprintf("expected argument of type %q, %T given", e.Expected, e.Value)
}

// Ucwords переводит в верхний регистр первую букву каждого слова. Слова разделяются пробельными символами,
// остальные буквы не меняются.
func Ucwords(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", &UnexpectedTypeError{Value: value, Expected: "string"}
	}

	var b strings.Builder
	b.Grow(len(s))
	atWordStart := true
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if atWordStart {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(r)
		}
		atWordStart = unicode.IsSpace(r)
	}
	return b.String(), nil
}

// Func — конвертер значения поля.
type Func func(value any) (string, error)

// Apply применяет конвертер к указанным полям плоской записи. Отсутствующие поля пропускаются.
func Apply(fn Func, data map[string]string, fields ...string) error {
	for _, field := range fields {
		value, ok := data[field]
		if !ok {
			continue
		}
		converted, err := fn(value)
		if err != nil {
			return fmt.Errorf("convert field %q: %w", field, err)
		}
		data[field] = converted
	}
	return nil
}
