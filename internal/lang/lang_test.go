package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		in   string
		want language.Tag
		ok   bool
	}{
		{"french", language.French, true},
		{"French", language.French, true},
		{" arabic ", language.Arabic, true},
		{"fr", language.French, true},
		{"zh-Hans", language.SimplifiedChinese, true},
		{"farsi", language.Persian, true},
		{"", language.Und, false},
		{"elvish", language.Und, false},
	}
	for _, tt := range tests {
		tag, ok := Resolve(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, tag, tt.in)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "French", DisplayName("fr"))
	assert.Equal(t, "Arabic", DisplayName("ar"))
	assert.Equal(t, "arabic", DisplayName("arabic"))
	assert.Equal(t, "Elvish", DisplayName(" Elvish "))
}

func TestScript(t *testing.T) {
	assert.Equal(t, "Latn", Script("french"))
	assert.Equal(t, "Arab", Script("arabic"))
	assert.Equal(t, "Arab", Script("fa"))
	assert.Equal(t, "Cyrl", Script("russian"))
	assert.Equal(t, "Hans", Script("chinese"))
	assert.Equal(t, "Jpan", Script("ja"))
	assert.Equal(t, "", Script("elvish"))
}

func TestIsRightToLeft(t *testing.T) {
	assert.True(t, IsRightToLeft("arabic"))
	assert.True(t, IsRightToLeft("he"))
	assert.False(t, IsRightToLeft("french"))
	assert.False(t, IsRightToLeft("unknown tongue"))
}
