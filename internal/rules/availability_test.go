package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/erazemk/igralnica/internal/model"
)

func TestFindAvailable(t *testing.T) {
	systems := []model.System{
		{Name: "Xbox Cart 1", Controllers: 4, Available: true, Cables: model.Cables{HDMI: true, Ethernet: true, Power: true}},
		{Name: "PS5 Bag 2", Controllers: 2, Available: true, Cables: model.Cables{HDMI: true, Power: true}},
		{Name: "Switch 1", Controllers: 4, Available: false, Cables: model.Cables{HDMI: true, USB: true}},
		{Name: "Quest 2", Controllers: 2, Available: true, Cables: model.Cables{USB: true}},
		{Name: "PS5 Bag 1", Controllers: 2, Available: true, Cables: model.Cables{HDMI: true}},
	}

	t.Run("hdmi two controllers sorted by name", func(t *testing.T) {
		got := FindAvailable(systems, Requirements{Controllers: 2, NeedsHDMI: true})
		require.Len(t, got, 3)
		assert.Equal(t, "PS5 Bag 1", got[0].Name)
		assert.Equal(t, "PS5 Bag 2", got[1].Name)
		assert.Equal(t, "Xbox Cart 1", got[2].Name)
	})

	t.Run("ethernet", func(t *testing.T) {
		got := FindAvailable(systems, Requirements{Controllers: 1, NeedsEthernet: true})
		require.Len(t, got, 1)
		assert.Equal(t, "Xbox Cart 1", got[0].Name)
	})

	t.Run("unavailable never matches", func(t *testing.T) {
		got := FindAvailable(systems, Requirements{Controllers: 4, NeedsUSB: true})
		assert.Empty(t, got)
		assert.NotNil(t, got)
	})

	t.Run("zero controllers means one", func(t *testing.T) {
		got := FindAvailable(systems, Requirements{})
		assert.Len(t, got, 4)
	})
}

func TestFindAvailableEthernetUnmet(t *testing.T) {
	item := model.System{
		Name:        "Cart",
		Controllers: 4,
		Available:   true,
		Cables:      model.Cables{HDMI: true, Ethernet: false, USB: false, Power: true},
	}
	got := FindAvailable([]model.System{item}, Requirements{Controllers: 2, NeedsHDMI: true, NeedsEthernet: true})
	assert.Empty(t, got)
}

func TestFindAvailableProperties(t *testing.T) {
	genSystem := rapid.Custom(func(t *rapid.T) model.System {
		return model.System{
			Name:        rapid.StringMatching(`[A-Z][a-z]{0,6}`).Draw(t, "name"),
			Controllers: rapid.IntRange(0, 8).Draw(t, "controllers"),
			Available:   rapid.Bool().Draw(t, "available"),
			Cables: model.Cables{
				HDMI:     rapid.Bool().Draw(t, "hdmi"),
				Ethernet: rapid.Bool().Draw(t, "ethernet"),
				USB:      rapid.Bool().Draw(t, "usb"),
				Power:    rapid.Bool().Draw(t, "power"),
			},
		}
	})

	rapid.Check(t, func(t *rapid.T) {
		systems := rapid.SliceOf(genSystem).Draw(t, "systems")
		req := Requirements{
			Controllers:   rapid.IntRange(0, 8).Draw(t, "min"),
			NeedsHDMI:     rapid.Bool().Draw(t, "needsHdmi"),
			NeedsEthernet: rapid.Bool().Draw(t, "needsEthernet"),
			NeedsUSB:      rapid.Bool().Draw(t, "needsUsb"),
		}
		got := FindAvailable(systems, req)

		for i, s := range got {
			if !s.Available {
				t.Fatalf("unavailable system %q returned", s.Name)
			}
			if (req.NeedsHDMI && !s.Cables.HDMI) || (req.NeedsEthernet && !s.Cables.Ethernet) || (req.NeedsUSB && !s.Cables.USB) {
				t.Fatalf("system %q misses a required cable", s.Name)
			}
			if i > 0 && got[i-1].Name > s.Name {
				t.Fatalf("results not sorted by name")
			}
		}

		count := 0
		for _, s := range systems {
			if Matches(s, req) {
				count++
			}
		}
		if count != len(got) {
			t.Fatalf("expected %d matches, got %d", count, len(got))
		}
	})
}
