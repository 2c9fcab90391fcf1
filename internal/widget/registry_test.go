package widget

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewjablack/dynamicdashboard/internal/model"
)

func TestInferPreset(t *testing.T) {
	cases := map[string]Preset{
		"CCXTChart":      PresetChart,
		"FREDChart":      PresetChart,
		"TwitterFeed":    PresetFeed,
		"PerpetualSwaps": PresetCompactTable,
		"VIXComponent":   PresetDefault,
		"default":        PresetDefault,
	}
	for typ, want := range cases {
		assert.Equal(t, want, InferPreset(typ), typ)
	}
}

func TestBuiltinPresetsMatchInference(t *testing.T) {
	// Feed-like types other than the designated feed are tagged explicitly.
	for _, d := range Builtin() {
		if d.Type == "ChatInterface" || d.Type == "TruthSocialFeed" {
			continue
		}
		assert.Equal(t, InferPreset(d.Type), d.Preset, d.Type)
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := MustBuiltin()

	_, err := r.Get("NoSuchWidget")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownType))

	_, ok := r.Lookup("NoSuchWidget")
	assert.False(t, ok)
	assert.Equal(t, PresetDefault, r.PresetOf("NoSuchWidget"))
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(Definition{Type: "a"}, Definition{Type: "a"})
	require.Error(t, err)

	_, err = NewRegistry(Definition{})
	require.Error(t, err)
}

func TestListTypesSorted(t *testing.T) {
	r, err := NewRegistry(
		Definition{Type: "z", DisplayName: "Beta"},
		Definition{Type: "a", DisplayName: "Alpha"},
		Definition{Type: "m"},
	)
	require.NoError(t, err)

	got := r.ListTypes()
	require.Len(t, got, 3)
	assert.Equal(t, []TypeInfo{
		{Type: "a", DisplayName: "Alpha"},
		{Type: "z", DisplayName: "Beta"},
		{Type: "m", DisplayName: "m"},
	}, got)
}

func TestConfigFieldsAndDefaults(t *testing.T) {
	r := MustBuiltin()

	fields, err := r.ConfigFields("CCXTChart")
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.Equal(t, "exchange", fields[0].Name)

	d, err := r.Get("CCXTChart")
	require.NoError(t, err)
	assert.Equal(t, "binance", d.DefaultProps["exchange"])
	assert.Equal(t, "1m", d.DefaultProps["timeframe"])

	_, err = r.ConfigFields("nope")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestRenderMergesDefaults(t *testing.T) {
	r := MustBuiltin()

	out, err := r.Render("TwitterFeed", model.Props{"usernames": []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "TwitterFeed", out.Component)
	assert.Equal(t, "a,b", out.Props["usernames"])
	assert.Equal(t, 10, out.Props["limit"])

	table, err := r.Render(DefaultType, nil)
	require.NoError(t, err)
	assert.Equal(t, "DataTable", table.Component)

	_, err = r.Render("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestCoerceProps(t *testing.T) {
	d, err := MustBuiltin().Get("HyperliquidChart")
	require.NoError(t, err)

	got, err := CoerceProps(d, model.Props{"limit": "250", "interval": "4h", "extra": true})
	require.NoError(t, err)
	assert.Equal(t, 250.0, got["limit"])
	assert.Equal(t, "4h", got["interval"])
	assert.Equal(t, "BTC", got["symbol"])
	assert.Equal(t, true, got["extra"])

	_, err = CoerceProps(d, model.Props{"limit": "many"})
	assert.Error(t, err)

	_, err = CoerceProps(d, model.Props{"interval": "2w"})
	assert.ErrorIs(t, err, ErrInvalidProps)

	_, err = CoerceProps(d, model.Props{"extra": map[string]any{"nested": 1.0}})
	assert.ErrorIs(t, err, ErrInvalidProps)
	_, err = CoerceProps(d, model.Props{"extra": []any{"ok", map[string]any{}}})
	assert.ErrorIs(t, err, ErrInvalidProps)
}

func TestCoercePropsLists(t *testing.T) {
	d, err := MustBuiltin().Get("PerpetualSwaps")
	require.NoError(t, err)

	got, err := CoerceProps(d, model.Props{"symbols": " BTC , SOL,, ", "exchanges": []any{"okx", "kraken"}})
	require.NoError(t, err)
	assert.Equal(t, "BTC,SOL", got["symbols"])
	assert.Equal(t, "okx,kraken", got["exchanges"])

	cal, err := MustBuiltin().Get("EconomicCalendar")
	require.NoError(t, err)
	got, err = CoerceProps(cal, model.Props{"showFOMCOnly": "true"})
	require.NoError(t, err)
	assert.Equal(t, true, got["showFOMCOnly"])
}
