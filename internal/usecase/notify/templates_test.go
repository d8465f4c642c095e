package notify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adherence-notify/internal/domain/entity"
)

func TestDefaultTemplates_CoverEveryNotificationType(t *testing.T) {
	templates := DefaultTemplates()
	for _, typ := range entity.AllNotificationTypes() {
		assert.True(t, templates.Has(typ), "missing template for %s", typ)
	}
}

func TestRender_General(t *testing.T) {
	title, body, data, err := DefaultTemplates().Render(entity.NotificationGeneral, map[string]string{
		"title": "Maintenance",
		"body":  "Tonight 2am",
	})

	require.NoError(t, err)
	assert.Equal(t, "Maintenance", title)
	assert.Equal(t, "Tonight 2am", body)
	assert.Equal(t, "GENERAL", data["type"])
}

func TestRender_MissingParameter(t *testing.T) {
	_, _, _, err := DefaultTemplates().Render(entity.NotificationMissedMedication, nil)
	assert.Error(t, err)
}

func TestParseTemplates_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown type", yaml: "templates:\n  BOGUS:\n    title: x\n"},
		{name: "empty title", yaml: "templates:\n  GENERAL:\n    title: \"\"\n"},
		{name: "bad template", yaml: "templates:\n  GENERAL:\n    title: \"{{.x\"\n"},
		{name: "bad yaml", yaml: "templates: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTemplates([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadTemplates(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		templates, err := LoadTemplates("")
		require.NoError(t, err)
		assert.True(t, templates.Has(entity.NotificationDiaryReminder))
	})

	t.Run("file overrides single type", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "templates.yaml")
		content := "templates:\n  DIARY_REMINDER:\n    title: \"Diary time\"\n    body: \"How was your day?\"\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		templates, err := LoadTemplates(path)
		require.NoError(t, err)

		title, body, _, err := templates.Render(entity.NotificationDiaryReminder, nil)
		require.NoError(t, err)
		assert.Equal(t, "Diary time", title)
		assert.Equal(t, "How was your day?", body)

		// Types absent from the file keep the embedded text.
		title, _, _, err = templates.Render(entity.NotificationMedicalConsultation, nil)
		require.NoError(t, err)
		assert.Equal(t, "🏥 의료진 상담 권유", title)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTemplates(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
