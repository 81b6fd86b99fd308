package pushlibav

import (
	"fmt"

	"github.com/asticode/go-astiav"
)

// Dictionary represents libav options as you would provide them to ffmpeg
type Dictionary struct {
	content   string
	flags     astiav.DictionaryFlags
	keyValSep string
	m         map[string]string
	pairsSep  string
}

// NewDictionary creates a new dictionary
func NewDictionary(content, keyValSep, pairsSep string, flags astiav.DictionaryFlags) *Dictionary {
	return &Dictionary{
		content:   content,
		flags:     flags,
		keyValSep: keyValSep,
		pairsSep:  pairsSep,
	}
}

// NewDefaultDictionary creates a dictionary out of "k1=v1,k2=v2" content
func NewDefaultDictionary(i string) *Dictionary {
	return NewDictionary(i, "=", ",", 0)
}

// NewDefaultDictionaryf is NewDefaultDictionary with formatting
func NewDefaultDictionaryf(format string, args ...interface{}) *Dictionary {
	return NewDictionary(fmt.Sprintf(format, args...), "=", ",", 0)
}

// NewMapDictionary creates a dictionary out of a map
func NewMapDictionary(m map[string]string) *Dictionary {
	d := NewDefaultDictionary("")
	d.m = m
	return d
}

// The caller is responsible for freeing the dictionary
func (d *Dictionary) parse() (dd *astiav.Dictionary, err error) {
	dd = astiav.NewDictionary()
	if d.content != "" {
		if err = dd.ParseString(d.content, d.keyValSep, d.pairsSep, d.flags); err != nil {
			dd.Free()
			err = fmt.Errorf("pushlibav: parsing dictionary content failed: %w", err)
			return
		}
	}
	for _, k := range sortedKeys(d.m) {
		if err = dd.Set(k, d.m[k], d.flags); err != nil {
			dd.Free()
			err = fmt.Errorf("pushlibav: setting dictionary key %s failed: %w", k, err)
			return
		}
	}
	return
}

func dictionaryToMap(d *astiav.Dictionary) (m map[string]string) {
	m = make(map[string]string)
	if d == nil {
		return
	}
	var e *astiav.DictionaryEntry
	for {
		if e = d.Get("", e, astiav.NewDictionaryFlags(astiav.DictionaryFlagIgnoreSuffix)); e == nil {
			break
		}
		m[e.Key()] = e.Value()
	}
	return
}
