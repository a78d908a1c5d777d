package branding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type MockGetter struct {
	present map[string]bool
	probes  int
}

func (m *MockGetter) GetJSON(context.Context, string) ([]byte, error) { return nil, nil }

func (m *MockGetter) Exists(_ context.Context, url string) bool {
	m.probes++
	return m.present[url]
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Acme", DisplayName("acme"))
	assert.Equal(t, "Acme", DisplayName("ACME"))
	assert.Equal(t, "Smarty-talent", DisplayName("smarty-TALENT"))
	assert.Equal(t, "", DisplayName(""))
}

func TestResolver_Resolve(t *testing.T) {
	const base = "https://cdn.test"

	t.Run("tenant with logo and background", func(t *testing.T) {
		g := &MockGetter{present: map[string]bool{
			base + "/tenants/acme/apply/logo.jpg": true,
			base + "/tenant/acme/bg.jpg":          true,
		}}
		b := NewResolver(g, base+"/", "default").Resolve(context.Background(), "acme", "")

		assert.Equal(t, base+"/tenants/acme/apply/logo.jpg", b.LogoURL)
		assert.Equal(t, base+"/tenant/acme/bg.jpg", b.BackgroundURL)
		assert.Equal(t, "Acme", b.DisplayName)
	})

	t.Run("missing assets fall back", func(t *testing.T) {
		g := &MockGetter{present: map[string]bool{}}
		b := NewResolver(g, base, "default").Resolve(context.Background(), "acme", "https://theme/logo.png")

		assert.Equal(t, "https://theme/logo.png", b.LogoURL)
		assert.Empty(t, b.BackgroundURL)
		assert.Equal(t, 2, g.probes)
	})

	t.Run("default tenant never probes", func(t *testing.T) {
		g := &MockGetter{}
		b := NewResolver(g, base, "default").Resolve(context.Background(), "default", "")

		assert.Empty(t, b.LogoURL)
		assert.Empty(t, b.BackgroundURL)
		assert.Equal(t, 0, g.probes)
	})
}
