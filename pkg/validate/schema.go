package validate

import (
	"github.com/pkg/errors"
)

// LocatorKind says what a template locator may be.
type LocatorKind int

const (
	LocatorURL LocatorKind = iota
	LocatorPath
	LocatorAny
)

// Schema is one version of the app descriptor layout.
type Schema struct {
	Version             string
	RequiredAppKeys     []string
	OptionalAppKeys     []string
	RequiredSettingKeys []string
	OptionalSettingKeys []string
	SettingTypes        []string
	Templates           LocatorKind
}

const DefaultSchemaVersion = "1"

var settingTypes = []string{"string", "stringtuplelist", "stringlist", "boolean"}

var schemas = map[string]Schema{
	"1": {
		Version: "1",
		RequiredAppKeys: []string{
			"name", "author", "author-email", "packagename", "installed-apps",
			"description", "license-text", "license", "url", "version",
		},
		OptionalAppKeys:     []string{"installation", "settings"},
		RequiredSettingKeys: []string{"name", "verbose-name", "type"},
		OptionalSettingKeys: []string{"default", "required", "editable"},
		SettingTypes:        settingTypes,
		Templates:           LocatorURL,
	},
	"2": {
		Version: "2",
		RequiredAppKeys: []string{
			"name", "packagename", "installed-apps", "description",
			"license", "license-path", "url", "version",
		},
		OptionalAppKeys: []string{
			"author", "author-url", "private", "translation-url", "installation",
			"settings", "plugins", "apphook",
		},
		RequiredSettingKeys: []string{"name", "verbose-name", "type"},
		OptionalSettingKeys: []string{"default", "required", "editable"},
		SettingTypes:        settingTypes,
		Templates:           LocatorAny,
	},
}

// LookupSchema returns the schema registered under version.
func LookupSchema(version string) (Schema, error) {
	schema, ok := schemas[version]
	if !ok {
		return Schema{}, errors.Errorf("unknown schema version %q", version)
	}
	return schema, nil
}

// SettingTypes lists the valid setting types of the default schema.
func SettingTypes() []string {
	return append([]string{}, settingTypes...)
}

func (s Schema) knownAppKey(key string) bool {
	return contains(s.RequiredAppKeys, key) || contains(s.OptionalAppKeys, key)
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
