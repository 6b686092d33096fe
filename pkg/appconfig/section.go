package appconfig

import "gopkg.in/ini.v1"

// Section is a typed view over one section of a Config. Handles obtained
// for the same name share the underlying data.
type Section struct {
	sec *ini.Section
}

func (s *Section) Name() string {
	return s.sec.Name()
}

func (s *Section) Has(key string) bool {
	return s.sec.HasKey(key)
}

func (s *Section) Get(key, def string) string {
	if !s.sec.HasKey(key) {
		return def
	}
	return s.sec.Key(key).String()
}

// GetList splits the value on newlines, trimming each line and dropping
// blank ones.
func (s *Section) GetList(key string, def []string) []string {
	if !s.sec.HasKey(key) {
		if def != nil {
			return def
		}
		return []string{}
	}

	return valueLines(s.sec.Key(key).String())
}

func (s *Section) GetInt(key string, def int) (int, error) {
	if !s.sec.HasKey(key) {
		return def, nil
	}
	value, err := s.sec.Key(key).Int()
	if err != nil {
		return def, s.parseError(key, "int", err)
	}
	return value, nil
}

func (s *Section) GetFloat(key string, def float64) (float64, error) {
	if !s.sec.HasKey(key) {
		return def, nil
	}
	value, err := s.sec.Key(key).Float64()
	if err != nil {
		return def, s.parseError(key, "float", err)
	}
	return value, nil
}

// GetBool accepts the usual spellings: 1/0, true/false, yes/no, on/off.
func (s *Section) GetBool(key string, def bool) (bool, error) {
	if !s.sec.HasKey(key) {
		return def, nil
	}
	value, err := s.sec.Key(key).Bool()
	if err != nil {
		return def, s.parseError(key, "bool", err)
	}
	return value, nil
}

func (s *Section) Set(key, value string) {
	s.sec.Key(key).SetValue(value)
}

func (s *Section) Delete(key string) {
	s.sec.DeleteKey(key)
}

// Keys returns the key names in insertion order.
func (s *Section) Keys() []string {
	return s.sec.KeyStrings()
}

func (s *Section) Map() map[string]string {
	result := map[string]string{}
	for _, key := range s.sec.Keys() {
		result[key.Name()] = key.String()
	}
	return result
}

func (s *Section) parseError(key, kind string, err error) error {
	return &ParseError{
		Section: s.sec.Name(),
		Key:     key,
		Value:   s.sec.Key(key).String(),
		Kind:    kind,
		Err:     err,
	}
}
