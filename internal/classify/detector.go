// Package classify scores page signals to decide whether a video page is
// educational content. Scoring is deterministic: a fixed input always
// produces the same result.
package classify

import (
	"fmt"
	"regexp"
	"strings"
)

// Threshold is the score at or above which a page counts as a lecture.
const Threshold = 8

// OverrideScore replaces the computed score when the user has manually
// classified a video.
const OverrideScore = 999

const descriptionLimit = 1000

// Signals is everything the scorer looks at for one page.
type Signals struct {
	Title         string
	Channel       string
	Description   string
	DurationSecs  int
	PlaylistTitle string
	InPlaylist    bool
	Override      *bool // manual classification for this video, nil when unset
}

// Result is the scorer's verdict. Factors lists every non-zero
// contribution in scoring order, for diagnostics.
type Result struct {
	IsLecture      bool
	Score          int
	Title          string
	Channel        string
	DurationSecs   int
	Factors        []string
	Threshold      int
	ManualOverride bool

	// Undetermined marks a verdict reached with no signals at all; a
	// determined zero score is a real non-lecture verdict.
	Undetermined bool
}

type keyword struct {
	term   string
	weight int
}

var lectureKeywords = []keyword{
	// Primary educational terms
	{"lecture", 4},
	{"tutorial", 4},
	{"course", 4},
	{"lesson", 4},
	{"class", 3},
	{"training", 3},
	{"workshop", 3},
	{"webinar", 3},
	{"seminar", 3},

	// Educational context terms
	{"learn", 4},
	{"teach", 4},
	{"education", 2},
	{"study", 4},
	{"explain", 2},
	{"guide", 4},
	{"how to", 2},
	{"introduction to", 2},

	// Academic terms
	{"academic", 1},
	{"university", 1},
	{"college", 1},
	{"school", 1},
	{"professor", 1},
	{"instructor", 1},
	{"teacher", 1},
}

var educationalChannels = []keyword{
	{"MIT OpenCourseWare", 8},
	{"Khan Academy", 8},
	{"Coursera", 8},
	{"edX", 8},
	{"TED-Ed", 7},
	{"Crash Course", 7},
	{"Academic Earth", 7},
	{"Yale Courses", 7},
	{"Stanford", 6},
	{"Harvard", 6},
	{"MIT", 6},
	{"University", 3},
	{"College", 3},
	{"Academy", 3},
	{"Educational", 3},
	{"Learning", 4},
}

var educationalSubjects = []keyword{
	{"mathematics", 4},
	{"math", 4},
	{"calculus", 3},
	{"algebra", 3},
	{"geometry", 3},
	{"physics", 3},
	{"chemistry", 3},
	{"biology", 3},
	{"science", 2},
	{"programming", 6},
	{"computer science", 6},
	{"coding", 6},
	{"engineering", 6},
	{"history", 2},
	{"economics", 2},
	{"psychology", 2},
	{"philosophy", 2},
	{"literature", 2},
	{"statistics", 3},
	{"data science", 4},
	{"art", 2},
	{"Notes", 6},
}

// Score classifies one page. With no title and no channel the result is an
// undetermined zero-score verdict and the caller should retry once the page
// has settled. A manual override short-circuits scoring entirely.
func Score(sig Signals) Result {
	if sig.Title == "" && sig.Channel == "" {
		return Result{
			Factors:      []string{"No content found"},
			Threshold:    Threshold,
			Undetermined: true,
		}
	}

	if sig.Override != nil {
		isLecture := *sig.Override
		score := OverrideScore
		label := "marked as lecture"
		if !isLecture {
			score = -OverrideScore
			label = "marked as non-lecture"
		}
		return Result{
			IsLecture:      isLecture,
			Score:          score,
			Title:          sig.Title,
			Channel:        sig.Channel,
			DurationSecs:   sig.DurationSecs,
			Factors:        []string{"Manual override: " + label},
			Threshold:      Threshold,
			ManualOverride: true,
		}
	}

	score := 0
	var factors []string

	if titleScore := scoreText(sig.Title, lectureKeywords); titleScore > 0 {
		score += titleScore
		factors = append(factors, fmt.Sprintf("Title keywords: +%d points", titleScore))
	}

	if channelScore := scoreText(sig.Channel, educationalChannels); channelScore > 0 {
		score += channelScore
		factors = append(factors, fmt.Sprintf("Educational channel: +%d points", channelScore))
	}

	if subjectScore := scoreText(sig.Title, educationalSubjects); subjectScore > 0 {
		score += subjectScore
		factors = append(factors, fmt.Sprintf("Educational subjects: +%d points", subjectScore))
	}

	if sig.DurationSecs > 600 {
		score += 2
		factors = append(factors, fmt.Sprintf("Long duration (%d min): +2 points", sig.DurationSecs/60))
	}
	if sig.DurationSecs > 1800 {
		score += 3
		factors = append(factors, "Very long duration (30+ min): +3 points")
	}

	description := sig.Description
	if len(description) > descriptionLimit {
		description = description[:descriptionLimit]
	}
	if descScore := scoreText(description, lectureKeywords); descScore > 0 {
		if descScore > 3 {
			descScore = 3
		}
		score += descScore
		factors = append(factors, fmt.Sprintf("Description keywords: +%d points", descScore))
	}

	if sig.InPlaylist && sig.PlaylistTitle != "" {
		if playlistScore := scoreText(sig.PlaylistTitle, lectureKeywords); playlistScore > 0 {
			if playlistScore > 4 {
				playlistScore = 4
			}
			score += playlistScore
			factors = append(factors, fmt.Sprintf("Educational playlist: +%d points", playlistScore))
		}
	}

	return Result{
		IsLecture:    score >= Threshold,
		Score:        score,
		Title:        sig.Title,
		Channel:      sig.Channel,
		DurationSecs: sig.DurationSecs,
		Factors:      factors,
		Threshold:    Threshold,
	}
}

// scoreText sums the weight of every keyword appearing as a
// case-insensitive substring of text.
func scoreText(text string, table []keyword) int {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)

	score := 0
	for _, kw := range table {
		if strings.Contains(lower, strings.ToLower(kw.term)) {
			score += kw.weight
		}
	}
	return score
}

var videoIDPattern = regexp.MustCompile(`[?&]v=([^&]+)`)

// VideoID extracts the stable video identifier from a watch URL. URLs
// without a v parameter key overrides by the whole URL.
func VideoID(url string) string {
	if m := videoIDPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return url
}

// InPlaylistURL reports whether the URL denotes a playlist context.
func InPlaylistURL(url string) bool {
	return strings.Contains(url, "list=")
}
