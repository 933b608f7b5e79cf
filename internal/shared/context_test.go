package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearerTokenRoundTrip(t *testing.T) {
	ctx := ContextWithBearerToken(context.Background(), "abc")
	assert.Equal(t, "abc", BearerTokenFromContext(ctx))
	assert.Empty(t, BearerTokenFromContext(context.Background()))
}

func TestParseBearer(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":     "abc",
		"bearer  xyz ":   "xyz",
		"Basic dXNlcg==": "",
		"":               "",
		"Bearer":         "",
	}
	for header, want := range cases {
		assert.Equal(t, want, ParseBearer(header), header)
	}
}

func TestWithoutBearerToken(t *testing.T) {
	ctx := WithoutBearerToken(ContextWithBearerToken(context.Background(), "abc"))
	assert.Empty(t, BearerTokenFromContext(ctx))
}
