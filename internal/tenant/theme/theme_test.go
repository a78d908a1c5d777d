package theme

import (
	"context"
	"errors"
	"testing"

	"apply-portal/internal/common/logger"

	"github.com/stretchr/testify/assert"
)

type MockGetter struct {
	docs  map[string]string
	calls []string
}

func (m *MockGetter) GetJSON(_ context.Context, url string) ([]byte, error) {
	m.calls = append(m.calls, url)
	if d, ok := m.docs[url]; ok {
		return []byte(d), nil
	}
	return nil, errors.New("not found")
}

func (m *MockGetter) Exists(context.Context, string) bool { return false }

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Theme
	}{
		{
			name: "flat document",
			raw:  `{"primaryColor":"#ff0000","secondaryColor":"#00ff00","backgroundColor":"#ffffff","buttonRadius":"4px","brandName":"Acme"}`,
			want: Theme{BrandName: "Acme", PrimaryColor: "#ff0000", SecondaryColor: "#00ff00", BackgroundColor: "#ffffff", ButtonRadius: "4px"},
		},
		{
			name: "customizer envelope and light background preferred",
			raw:  `{"customizer":{"primaryColor":"#123","backgroundColor":"#000","lightBackgroundColor":"#fafafa"}}`,
			want: Theme{BrandName: Default.BrandName, PrimaryColor: "#123", SecondaryColor: Default.SecondaryColor, BackgroundColor: "#fafafa", ButtonRadius: Default.ButtonRadius},
		},
		{
			name: "invalid values dropped",
			raw:  `{"primaryColor":"red","secondaryColor":"#12345678","logoUrl":"ftp://x/logo.png","buttonRadius":"999999999999999999999px"}`,
			want: Theme{BrandName: Default.BrandName, PrimaryColor: Default.PrimaryColor, SecondaryColor: "#12345678", BackgroundColor: Default.BackgroundColor, ButtonRadius: Default.ButtonRadius},
		},
		{
			name: "logo url kept",
			raw:  `{"logoUrl":"https://cdn.example.com/logo.png"}`,
			want: Theme{LogoURL: "https://cdn.example.com/logo.png", BrandName: Default.BrandName, PrimaryColor: Default.PrimaryColor, SecondaryColor: Default.SecondaryColor, BackgroundColor: Default.BackgroundColor, ButtonRadius: Default.ButtonRadius},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate([]byte(tt.raw)).Over(Default))
		})
	}
}

func TestValidate_Garbage(t *testing.T) {
	assert.True(t, Validate([]byte(`not json`)).Empty())
	assert.True(t, Validate([]byte(`["#fff"]`)).Empty())
	assert.True(t, Validate([]byte(`{"primaryColor":42}`)).Empty())

	long := make([]byte, 120)
	for i := range long {
		long[i] = 'a'
	}
	assert.True(t, Validate([]byte(`{"brandName":"`+string(long)+`"}`)).Empty())
}

func TestValidate_CustomizerExport(t *testing.T) {
	p := Validate([]byte(`{"customizer":{"primaryColor":"#ff0000","secondaryColor":"#00ff00","lightBackgroundColor":"#fefefe","backgroundColor":"#000000"}}`))
	assert.False(t, p.Empty())

	th := p.Over(Default)
	assert.Equal(t, "#ff0000", th.PrimaryColor)
	assert.Equal(t, "#00ff00", th.SecondaryColor)
	assert.Equal(t, "#fefefe", th.BackgroundColor)

	// short keys are not part of the theme format
	assert.True(t, Validate([]byte(`{"primary":"#ff0000","secondary":"#00ff00"}`)).Empty())
}

func TestLoader_Cascade(t *testing.T) {
	const base = "https://cdn.test"
	tenantURL := base + "/tenants/acme/apply/theme.json"
	globalURL := base + "/tenants/smartytalent/apply/theme.json"

	tests := []struct {
		name       string
		tenant     string
		docs       map[string]string
		wantSource Source
		wantColor  string
		wantCalls  []string
	}{
		{
			name:       "tenant theme wins",
			tenant:     "acme",
			docs:       map[string]string{tenantURL: `{"primaryColor":"#111111"}`, globalURL: `{"primaryColor":"#222222"}`},
			wantSource: SourceTenant,
			wantColor:  "#111111",
			wantCalls:  []string{tenantURL},
		},
		{
			name:       "empty tenant theme falls through to global",
			tenant:     "acme",
			docs:       map[string]string{tenantURL: `{"primaryColor":"nope"}`, globalURL: `{"primaryColor":"#222222"}`},
			wantSource: SourceGlobal,
			wantColor:  "#222222",
			wantCalls:  []string{tenantURL, globalURL},
		},
		{
			name:       "default tenant skips tenant layer",
			tenant:     "default",
			docs:       map[string]string{globalURL: `{"primaryColor":"#222222"}`},
			wantSource: SourceGlobal,
			wantColor:  "#222222",
			wantCalls:  []string{globalURL},
		},
		{
			name:   "customizer export from the CDN",
			tenant: "acme",
			docs: map[string]string{
				tenantURL: `{"customizer":{"primaryColor":"#ff0000","secondaryColor":"#00ff00","lightBackgroundColor":"#fefefe","brandName":"Acme"}}`,
				globalURL: `{"primaryColor":"#222222"}`,
			},
			wantSource: SourceTenant,
			wantColor:  "#ff0000",
			wantCalls:  []string{tenantURL},
		},
		{
			name:       "nothing reachable",
			tenant:     "acme",
			docs:       map[string]string{},
			wantSource: SourceDefault,
			wantColor:  Default.PrimaryColor,
			wantCalls:  []string{tenantURL, globalURL},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getter := &MockGetter{docs: tt.docs}
			l := NewLoader(getter, base+"/", "default", "smartytalent", logger.NewNoOpLogger())

			th, src := l.Load(context.Background(), tt.tenant)
			assert.Equal(t, tt.wantSource, src)
			assert.Equal(t, tt.wantColor, th.PrimaryColor)
			assert.Equal(t, tt.wantCalls, getter.calls)
		})
	}
}

func TestCSSVars(t *testing.T) {
	css := string(Default.CSSVars())
	assert.Contains(t, css, "--primary-color: #2563eb;")
	assert.Contains(t, css, "--secondary-color: #1e40af;")
	assert.Contains(t, css, "--background-color: #f8fafc;")
	assert.Contains(t, css, "--button-radius: 0.5rem;")

	evil := Default
	evil.ButtonRadius = "1px;}</style>"
	assert.NotContains(t, string(evil.CSSVars()), "</style>")
}
