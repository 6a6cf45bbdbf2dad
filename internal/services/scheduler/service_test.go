package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCron(t *testing.T) {
	t.Run("Should convert 5-field to 6-field cron", func(t *testing.T) {
		tests := []struct {
			name     string
			input    string
			expected string
		}{
			{name: "Every 5 minutes", input: "*/5 * * * *", expected: "0 */5 * * * *"},
			{name: "Every 15 minutes", input: "*/15 * * * *", expected: "0 */15 * * * *"},
			{name: "Market open on weekdays", input: "30 9 * * 1-5", expected: "0 30 9 * * 1-5"},
			{name: "Daily at 2 AM", input: "0 2 * * *", expected: "0 0 2 * * *"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				result, err := normalizeCron(tt.input)
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			})
		}
	})

	t.Run("Should keep 6-field cron and descriptors unchanged", func(t *testing.T) {
		for _, input := range []string{"0 */5 * * * *", "30 0 2 * * 1", "@every 90s", "@hourly"} {
			result, err := normalizeCron(input)
			require.NoError(t, err, input)
			assert.Equal(t, input, result)
		}
	})

	t.Run("Should fail with invalid field count", func(t *testing.T) {
		for _, input := range []string{"0 2 * *", "0 0 2 * * * 2025", "", "*"} {
			_, err := normalizeCron(input)
			assert.Error(t, err, input)
			assert.Contains(t, err.Error(), "invalid cron expression")
		}
	})

	t.Run("Should reject malformed descriptors and fields", func(t *testing.T) {
		_, err := normalizeCron("@sometimes")
		assert.Error(t, err)

		_, err = normalizeCron("61 * * * *")
		assert.Error(t, err)
	})
}

func TestRegister(t *testing.T) {
	t.Run("Should register, replace and list jobs", func(t *testing.T) {
		s := NewService()

		require.NoError(t, s.Register(JobTaskResync, "*/5 * * * *", func() {}))
		require.NoError(t, s.Register(JobProfileRefresh, "@every 15m", func() {}))
		require.NoError(t, s.Register(JobTaskResync, "*/10 * * * *", func() {}))

		jobs := s.ListJobs()
		require.Len(t, jobs, 2)
		assert.Equal(t, JobProfileRefresh, jobs[0].Name)
		assert.Equal(t, JobTaskResync, jobs[1].Name)
		assert.Equal(t, "0 */10 * * * *", jobs[1].Cron)
		assert.Len(t, s.cron.Entries(), 2)
	})

	t.Run("Should disable a job with an empty expression", func(t *testing.T) {
		s := NewService()
		require.NoError(t, s.Register(JobTaskResync, "*/5 * * * *", func() {}))
		require.NoError(t, s.Register(JobTaskResync, "", func() {}))

		assert.Empty(t, s.ListJobs())
		assert.Empty(t, s.cron.Entries())
	})

	t.Run("Should reject an invalid expression", func(t *testing.T) {
		s := NewService()
		err := s.Register(JobTaskResync, "not a cron", func() {})
		assert.Error(t, err)
		assert.Empty(t, s.ListJobs())
	})

	t.Run("Should report next run once started", func(t *testing.T) {
		s := NewService()
		require.NoError(t, s.Register(JobTaskResync, "@every 1h", func() {}))
		s.Start()
		defer s.Stop()

		jobs := s.ListJobs()
		require.Len(t, jobs, 1)
		assert.NotNil(t, jobs[0].NextRun)
	})
}
