package config

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfigFromYaml(t *testing.T, rawConfig string) (*Configuration, error) {
	t.Helper()
	v := viper.New()
	SetupViper(v, "")
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(rawConfig)))
	return New(v)
}

func TestFullConfig(t *testing.T) {
	cfg, err := newConfigFromYaml(t, `
publisher_id: pub-42
exclude_fields: [cpmStats, bidderList]
content:
  language: en
  keywords: [news, sports]
vendors:
  - name: vendor-a
    endpoint: https://collect.vendor-a.example/intake
  - name: vendor-b
    endpoint: https://collect.vendor-b.example/intake
    data_mode: both
    exclude_fields: [pageUrl]
`)
	require.NoError(t, err)

	assert.Equal(t, "pub-42", cfg.PublisherID)
	assert.Equal(t, []string{"cpmStats", "bidderList"}, cfg.ExcludeFields)
	require.Len(t, cfg.Vendors, 2)
	assert.Equal(t, DataModeRaw, cfg.Vendors[0].DataMode)
	assert.Equal(t, DataModeBoth, cfg.Vendors[1].DataMode)
	assert.Equal(t, []string{"pageUrl"}, cfg.Vendors[1].ExcludeFields)
	assert.Equal(t, 8006, cfg.Port)
	assert.Equal(t, uint64(2000), cfg.VendorTimeoutMs)
}

func TestInvalidVendorsAreDropped(t *testing.T) {
	cfg, err := newConfigFromYaml(t, `
vendors:
  - name: ""
    endpoint: https://nameless.example/intake
  - name: no-endpoint
  - name: bad-endpoint
    endpoint: "not a url"
  - name: survivor
    endpoint: https://collect.example/intake
`)
	require.NoError(t, err)
	require.Len(t, cfg.Vendors, 1)
	assert.Equal(t, "survivor", cfg.Vendors[0].Name)
}

func TestNoValidVendorsIsFatal(t *testing.T) {
	_, err := newConfigFromYaml(t, `
vendors:
  - name: ""
    endpoint: https://nameless.example/intake
`)
	assert.Error(t, err)

	_, err = newConfigFromYaml(t, `
publisher_id: pub-42
`)
	assert.Error(t, err)
}

func TestUnknownDataModeDefaultsToRaw(t *testing.T) {
	cfg, err := newConfigFromYaml(t, `
vendors:
  - name: vendor-a
    endpoint: https://collect.example/intake
    data_mode: shiny
`)
	require.NoError(t, err)
	assert.Equal(t, DataModeRaw, cfg.Vendors[0].DataMode)
}

func TestUnknownExcludeFieldsAreDropped(t *testing.T) {
	cfg, err := newConfigFromYaml(t, `
exclude_fields: [cpmStats, notAField, userAgent]
vendors:
  - name: vendor-a
    endpoint: https://collect.example/intake
    exclude_fields: [alsoNotAField, fillRate]
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"cpmStats"}, cfg.ExcludeFields)
	assert.Equal(t, []string{"fillRate"}, cfg.Vendors[0].ExcludeFields)
}

func TestContentToORTB(t *testing.T) {
	assert.Nil(t, Content{}.ToORTB())

	c := Content{Language: "en", Keywords: []string{"news"}}.ToORTB()
	require.NotNil(t, c)
	assert.Equal(t, "en", c.Language)
	assert.Equal(t, []string{"news"}, c.KwArray)
}
