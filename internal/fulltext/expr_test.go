package fulltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/patrology/internal/errors"
)

func TestParseExpr_RendersFTS5(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single term", "grace", `"grace"`},
		{"explicit and", "grace AND faith", `("grace" AND "faith")`},
		{"implicit and", "grace faith", `("grace" AND "faith")`},
		{"or", "grace OR faith", `("grace" OR "faith")`},
		{"and binds tighter than or", "a b OR c", `(("a" AND "b") OR "c")`},
		{"parentheses", "a AND (b OR c)", `("a" AND ("b" OR "c"))`},
		{"binary not", "grace NOT law", `("grace" NOT "law")`},
		{"and not", "grace AND NOT law", `("grace" NOT "law")`},
		{"not with several positives", "a b NOT c", `(("a" AND "b") NOT "c")`},
		{"quoted phrase", `"holy   spirit" AND love`, `("holy spirit" AND "love")`},
		{"prefix", "incarnat*", `"incarnat"*`},
		{"lowercase operators are terms", "faith and works", `(("faith" AND "and") AND "works")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := ParseExpr(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.String())
			assert.Equal(t, tt.in, e.Source())
		})
	}
}

func TestParseExpr_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"dangling and", "grace AND"},
		{"leading and", "AND grace"},
		{"dangling or", "grace OR"},
		{"unclosed paren", "(grace OR faith"},
		{"stray close paren", "grace)"},
		{"empty parens", "()"},
		{"unterminated quote", `"holy spirit`},
		{"bare not", "NOT grace"},
		{"not only branch", "grace OR NOT law"},
		{"double not", "grace NOT NOT law"},
		{"punctuation only", "grace AND ---"},
		{"bare star", "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExpr(tt.in)
			require.Error(t, err)
			assert.True(t, errors.IsQuery(err), "want query error, got %v", err)
			assert.Equal(t, errors.ErrCodeInvalidQuery, errors.GetCode(err))
		})
	}
}

func TestParseExpr_Empty(t *testing.T) {
	_, err := ParseExpr("   ")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryEmpty, errors.GetCode(err))
}

func TestExpr_Keywords(t *testing.T) {
	e, err := ParseExpr(`(Grace OR "Holy Spirit,") NOT law grace`)
	require.NoError(t, err)

	assert.Equal(t, []string{"grace", "holy", "spirit"}, e.Keywords())
}

func TestAnyOf(t *testing.T) {
	assert.Nil(t, AnyOf(nil))
	assert.Nil(t, AnyOf([]string{"--", ""}))

	e := AnyOf([]string{"jesus"})
	require.NotNil(t, e)
	assert.Equal(t, `"jesus"`, e.String())

	e = AnyOf([]string{"jesus", "...", "christ"})
	require.NotNil(t, e)
	assert.Equal(t, `("jesus" OR "christ")`, e.String())
}

func TestAllOf(t *testing.T) {
	assert.Equal(t, `"grace" AND "faith"`, AllOf([]string{"grace", "faith"}))

	e, err := ParseExpr(AllOf([]string{"grace", "faith"}))
	require.NoError(t, err)
	assert.Equal(t, `("grace" AND "faith")`, e.String())
}
