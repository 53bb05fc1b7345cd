// Package config loads palx settings from a Starlark configuration file.
//
// A configuration file sets any of these globals:
//
//	lines_per_page = 60
//	columns_per_page = 120
//	sixbit = "os8"           # or "dec"
//	ascii = "always_mark"    # or "normal"
//	nowarn = "W"
//	define = {"DEBUG": 1, "BASE": 0o200}
package config

import (
	"strings"

	"github.com/charmbracelet/log"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/palx/listing"
	"github.com/ezrec/palx/pal"
)

// Config holds the settings of one assembly.
type Config struct {
	LinesPerPage   int
	ColumnsPerPage int
	Options        pal.Options
	Defines        map[string]pal.Word
}

// Default returns the built in settings.
func Default() *Config {
	return &Config{
		LinesPerPage:   listing.LINES_PER_PAGE,
		ColumnsPerPage: listing.COLUMNS_PER_PAGE,
		Defines:        map[string]pal.Word{},
	}
}

// Load executes a configuration file, applying its globals to the
// defaults. The source may be nil to read the file.
func Load(filename string, src any) (cfg *Config, err error) {
	cfg = Default()
	err = cfg.Exec(filename, src)
	if err != nil {
		cfg = nil
	}
	return
}

// Exec executes a configuration file, applying its globals.
func (cfg *Config) Exec(filename string, src any) (err error) {
	thread := starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			log.Info(msg, "config", filename)
		},
	}
	opts := syntax.FileOptions{}

	globals, err := starlark.ExecFileOptions(&opts, &thread, filename, src, nil)
	if err != nil {
		return
	}

	return cfg.apply(globals)
}

func intValue(name string, value starlark.Value) (result int, err error) {
	err = starlark.AsInt(value, &result)
	if err != nil {
		err = ErrConfigValue{Name: name, Reason: err.Error()}
	}
	return
}

func stringValue(name string, value starlark.Value) (result string, err error) {
	result, ok := starlark.AsString(value)
	if !ok {
		err = ErrConfigValue{Name: name, Reason: f("got %v, want string", value.Type())}
	}
	return
}

func (cfg *Config) apply(globals starlark.StringDict) (err error) {
	if value, ok := globals["lines_per_page"]; ok {
		cfg.LinesPerPage, err = intValue("lines_per_page", value)
		if err != nil {
			return
		}
		if cfg.LinesPerPage < 10 {
			return ErrConfigValue{Name: "lines_per_page", Reason: f("must be at least 10")}
		}
	}

	if value, ok := globals["columns_per_page"]; ok {
		cfg.ColumnsPerPage, err = intValue("columns_per_page", value)
		if err != nil {
			return
		}
		if cfg.ColumnsPerPage < 80 {
			return ErrConfigValue{Name: "columns_per_page", Reason: f("must be at least 80")}
		}
	}

	if value, ok := globals["sixbit"]; ok {
		var text string
		text, err = stringValue("sixbit", value)
		if err != nil {
			return
		}
		switch strings.ToLower(text) {
		case "os8":
			cfg.Options.Sixbit = pal.SIXBIT_OS8
		case "dec":
			cfg.Options.Sixbit = pal.SIXBIT_DEC
		default:
			return ErrConfigValue{Name: "sixbit", Reason: f("unknown packing %q", text)}
		}
	}

	if value, ok := globals["ascii"]; ok {
		var text string
		text, err = stringValue("ascii", value)
		if err != nil {
			return
		}
		switch strings.ToLower(text) {
		case "always_mark", "asr":
			cfg.Options.Ascii = pal.ASCII_ALWAYS_MARK
		case "normal":
			cfg.Options.Ascii = pal.ASCII_NORMAL
		default:
			return ErrConfigValue{Name: "ascii", Reason: f("unknown mode %q", text)}
		}
	}

	if value, ok := globals["nowarn"]; ok {
		var text string
		text, err = stringValue("nowarn", value)
		if err != nil {
			return
		}
		set, ok := pal.ParseErrorSet(text)
		if !ok {
			return ErrConfigValue{Name: "nowarn", Reason: f("bad error codes %q", text)}
		}
		cfg.Options.NoWarn = set
	}

	if value, ok := globals["define"]; ok {
		dict, isDict := value.(*starlark.Dict)
		if !isDict {
			return ErrConfigValue{Name: "define", Reason: f("got %v, want dict", value.Type())}
		}
		for _, item := range dict.Items() {
			name, isString := starlark.AsString(item[0])
			if !isString {
				return ErrConfigValue{Name: "define", Reason: f("key %v is not a string", item[0])}
			}
			var number int
			number, err = intValue("define."+name, item[1])
			if err != nil {
				return
			}
			cfg.Defines[pal.NormalizeName(name)] = pal.Word(number) & pal.WORD_MASK
		}
	}

	return
}

// EvalDefine parses a NAME=VALUE definition. The value is a Starlark
// expression that may use the names already defined; a bare NAME is 1.
func (cfg *Config) EvalDefine(text string) (name string, value pal.Word, err error) {
	name, expr, found := strings.Cut(text, "=")
	name = strings.TrimSpace(name)
	if !isName(name) {
		err = ErrDefine(text)
		return
	}
	name = pal.NormalizeName(name)

	if !found {
		value = 1
		cfg.Defines[name] = value
		return
	}

	pred := starlark.StringDict{}
	for key, word := range cfg.Defines {
		pred[key] = starlark.MakeInt(int(word))
	}

	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "define", prog, pred)
	if err != nil {
		return
	}

	var number int
	err = starlark.AsInt(dict["rc"], &number)
	if err != nil {
		err = ErrDefine(text)
		return
	}

	value = pal.Word(number) & pal.WORD_MASK
	cfg.Defines[name] = value
	return
}

func isName(name string) bool {
	if name == "" {
		return false
	}
	for n, ch := range name {
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= 'a' && ch <= 'z', ch == '$', ch == '_':
		case ch >= '0' && ch <= '9' && n > 0:
		default:
			return false
		}
	}
	return true
}
