package config

import (
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-viper/mapstructure/v2"
)

// Delimiter is a field separator. In config it may be written as a name
// (comma, tab, semicolon, pipe), an escape such as "\t", or a single character.
type Delimiter rune

var delimiterNames = map[string]Delimiter{
	"comma":     ',',
	"tab":       '\t',
	`\t`:        '\t',
	"semicolon": ';',
	"pipe":      '|',
}

// ParseDelimiter converts a config value into a Delimiter.
func ParseDelimiter(s string) (Delimiter, error) {
	if d, ok := delimiterNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
			return 0, fmt.Errorf("invalid delimiter %q", s)
		}
		return Delimiter(r), nil
	}
	return 0, fmt.Errorf("invalid delimiter %q (expected comma, tab, semicolon, pipe or a single character)", s)
}

// Rune returns the delimiter as a rune.
func (d Delimiter) Rune() rune {
	return rune(d)
}

func (d Delimiter) String() string {
	for name, v := range delimiterNames {
		if v == d && name != `\t` {
			return name
		}
	}
	return string(rune(d))
}

// delimiterHook decodes string config values into Delimiters.
func delimiterHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(Delimiter(0)) || from.Kind() != reflect.String {
			return data, nil
		}
		return ParseDelimiter(data.(string))
	}
}
