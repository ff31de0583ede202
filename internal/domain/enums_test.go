package domain

import "testing"

func TestMatchesActivity(t *testing.T) {
	cases := []struct {
		name     string
		category ChallengeCategory
		activity ActivityType
		metadata map[string]any
		want     bool
	}{
		{"meditation session counts", CategoryMeditation, ActivitySessionComplete, map[string]any{"sessionType": "MEDITATION"}, true},
		{"breathing session does not", CategoryMeditation, ActivitySessionComplete, map[string]any{"sessionType": "BREATHING"}, false},
		{"session without metadata does not", CategoryMeditation, ActivitySessionComplete, nil, false},
		{"journal does not count as meditation", CategoryMeditation, ActivityJournalEntry, nil, false},

		{"journal entry counts", CategoryJournaling, ActivityJournalEntry, nil, true},
		{"gratitude is not journaling", CategoryJournaling, ActivityGratitudeEntry, nil, false},

		{"post is social", CategorySocial, ActivityCommunityPost, nil, true},
		{"comment is social", CategorySocial, ActivityCommunityComment, nil, true},
		{"like is social", CategorySocial, ActivityPostLike, nil, true},
		{"session is not social", CategorySocial, ActivitySessionComplete, nil, false},

		{"any session is wellness", CategoryWellness, ActivitySessionComplete, nil, true},
		{"mood check-in is wellness", CategoryWellness, ActivityMoodCheckin, nil, true},
		{"gratitude is wellness", CategoryWellness, ActivityGratitudeEntry, nil, true},
		{"post is not wellness", CategoryWellness, ActivityCommunityPost, nil, false},

		{"daily check-in drives streak challenges", CategoryStreaks, ActivityDailyCheckin, nil, true},
		{"session does not drive streak challenges", CategoryStreaks, ActivitySessionComplete, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.category.MatchesActivity(tc.activity, tc.metadata); got != tc.want {
				t.Fatalf("%s.MatchesActivity(%s) = %v, want %v", tc.category, tc.activity, got, tc.want)
			}
		})
	}
}

func TestEnrollmentStatusTerminal(t *testing.T) {
	if EnrollmentActive.Terminal() {
		t.Fatal("ACTIVE must not be terminal")
	}
	if !EnrollmentCompleted.Terminal() || !EnrollmentExpired.Terminal() {
		t.Fatal("COMPLETED and EXPIRED must be terminal")
	}
}
