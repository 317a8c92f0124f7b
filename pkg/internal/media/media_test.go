package media_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to media.Status
		ok       bool
	}{
		{media.StatusUploading, media.StatusPending, true},
		{media.StatusUploading, media.StatusFailed, true},
		{media.StatusPending, media.StatusProcessing, true},
		{media.StatusProcessing, media.StatusReady, true},
		{media.StatusProcessing, media.StatusFailed, true},
		{media.StatusReady, media.StatusProcessing, true},
		{media.StatusFailed, media.StatusProcessing, true},
		{media.StatusUploading, media.StatusReady, false},
		{media.StatusPending, media.StatusReady, false},
		{media.StatusReady, media.StatusPending, false},
		{media.StatusFailed, media.StatusPending, false},
		{media.Status("deleted"), media.StatusFailed, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.ok, media.CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, media.StatusReady.Terminal())
	assert.True(t, media.StatusFailed.Terminal())
	assert.False(t, media.StatusProcessing.Terminal())

	st, ok := media.ParseStatus("processing")
	assert.True(t, ok)
	assert.Equal(t, media.StatusProcessing, st)

	_, ok = media.ParseStatus("archived")
	assert.False(t, ok)

	assert.True(t, media.Contains(media.InFlight, media.StatusPending))
	assert.False(t, media.Contains(media.InFlight, media.StatusUploading))
}

func TestCategoryOf(t *testing.T) {
	cases := map[string]media.Category{
		"image/jpeg":                media.CategoryImage,
		"IMAGE/HEIC":                media.CategoryImage,
		"video/mp4":                 media.CategoryVideo,
		"audio/mpeg; charset=utf-8": media.CategoryAudio,
	}
	for mt, want := range cases {
		got, ok := media.CategoryOf(mt)
		assert.True(t, ok, mt)
		assert.Equal(t, want, got, mt)
	}

	for _, mt := range []string{"", "application/pdf", "text/plain", "image", "not a mime"} {
		_, ok := media.CategoryOf(mt)
		assert.False(t, ok, mt)
	}

	assert.Equal(t, "image/png", media.BaseMIME(" Image/PNG ; q=1"))
}

func TestNormalizeTags(t *testing.T) {
	got := media.NormalizeTags([]string{" Beach", "beach", "#Sunset", "", "  golden   hour ", "SUNSET"})
	assert.Equal(t, []string{"beach", "sunset", "golden hour"}, got)

	many := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		many = append(many, string(rune('a'+i)))
	}

	assert.Len(t, media.NormalizeTags(many), media.MaxTags)
}

func TestNormalizePeople(t *testing.T) {
	got := media.NormalizePeople([]string{"Ada Lovelace", "ada  lovelace", " Grace ", ""})
	assert.Equal(t, []string{"Ada Lovelace", "Grace"}, got)

	merged := media.MergePeople([]string{"Ada"}, []string{"Grace", "ADA"}, nil)
	assert.Equal(t, []string{"Ada", "Grace"}, merged)
}

func TestRenamePerson(t *testing.T) {
	out, changed := media.RenamePerson([]string{"Person 1", "Grace"}, "person 1", "Ada")
	assert.True(t, changed)
	assert.Equal(t, []string{"Ada", "Grace"}, out)

	// 改名后与已有名字重复时合并
	out, changed = media.RenamePerson([]string{"Person 1", "Ada"}, "Person 1", "ada")
	assert.True(t, changed)
	assert.Equal(t, []string{"ada"}, out)

	_, changed = media.RenamePerson([]string{"Grace"}, "Ada", "Bob")
	assert.False(t, changed)
}

func TestVerdict(t *testing.T) {
	assert.Equal(t, media.VerdictPossibleNSFW, media.ParseVerdict("possible nsfw"))
	assert.Equal(t, media.VerdictSafe, media.ParseVerdict(" safe "))
	assert.Equal(t, media.VerdictSafe, media.ParseVerdict("\tSAFE\n"))
	assert.Equal(t, media.VerdictPossibleNSFW, media.ParseVerdict("  Possible   NSFW "))
	assert.Equal(t, media.VerdictUnknown, media.ParseVerdict("maybe?"))

	assert.Equal(t, "NSFW: nudity; violence", media.SafetyReason(media.VerdictNSFW, []string{"nudity", " ", "violence"}))
	assert.Equal(t, "SAFE", media.SafetyReason(media.VerdictSafe, nil))
}

func TestErrorCode(t *testing.T) {
	assert.True(t, media.CodeCanceled.Transfer())
	assert.False(t, media.CodeTimeout.Transfer())

	err := &media.RecordError{Code: media.CodeAnalysisFailed, Message: "rate limited"}
	assert.Equal(t, "analysis_failed: rate limited", err.Error())
}
