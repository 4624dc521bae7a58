package classify

import (
	"regexp"
	"strings"

	"github.com/vipul43/jobtrail/internal/models"
)

// detectionBodyChars is how much of the body stage detection looks at
const detectionBodyChars = 500

// stagePatterns holds the ordered pattern list for every label.
// Indexing by StageLabel keeps the table in step with the label enum.
var stagePatterns = [models.NumStages][]string{
	models.StageSubmitted: {
		`thank you for (applying|your application)`,
		`we've received your application`,
		`application (received|submitted)`,
		`thanks for applying`,
	},
	models.StageAptitudeTest: {
		`plum`,
		`pymetrics`,
		`shl\.com`,
		`talent.*assessment`,
		`psychometric`,
		`behavioral.*assessment`,
		`personality.*assessment`,
	},
	models.StageSimulationTest: {
		`simulate`,
		`simulation`,
		`forage`,
		`job.*preview`,
		`situational.*judgment|sjt`,
	},
	models.StageCodingTest: {
		`hackerrank`,
		`codesignal`,
		`codility`,
		`coding.*(test|assessment|challenge)`,
		`technical.*assessment`,
		`take.*home.*assignment`,
	},
	models.StageVideoInterview: {
		`hirevue`,
		`willo`,
		`pre-recorded.*video`,
		`one-way.*video`,
		`record your (answer|response)`,
	},
	models.StageHumanInterview: {
		`interview.*(scheduled|confirmation|invitation)`,
		`assessment centre`,
		`super day`,
		`meet with`,
		`speak with you`,
	},
	models.StageRejection: {
		`not.*(proceed|move forward|moving forward)`,
		`unfortunately`,
		`will not be`,
		`decided not to proceed`,
		`regret to inform`,
	},
	models.StageOffer: {
		`(pleased|delighted) to offer`,
		`offer letter`,
		`congratulations.*offer`,
	},
}

// Detector matches message text against an ordered matcher list per stage label
type Detector struct {
	matchers [models.NumStages][]*regexp.Regexp
}

// NewDetector compiles the built-in stage patterns
func NewDetector() *Detector {
	d := &Detector{}
	for label, patterns := range stagePatterns {
		for _, p := range patterns {
			d.matchers[label] = append(d.matchers[label], regexp.MustCompile(p))
		}
	}
	return d
}

var defaultDetector = NewDetector()

// Detect returns the labels whose pattern list matches the already case-folded text.
// The first matching pattern settles a label; empty text yields the empty set.
func (d *Detector) Detect(text string) models.StageSet {
	var set models.StageSet
	if text == "" {
		return set
	}
	for label, matchers := range d.matchers {
		for _, re := range matchers {
			if re.MatchString(text) {
				set = set.Add(models.StageLabel(label))
				break
			}
		}
	}
	return set
}

// DetectMessage runs the detector over subject, sender and the start of the body
func (d *Detector) DetectMessage(m models.Message) models.StageSet {
	return d.Detect(DetectionText(m))
}

// DetectStages classifies a message with the built-in patterns
func DetectStages(m models.Message) models.StageSet {
	return defaultDetector.DetectMessage(m)
}

// DetectionText is the case-folded text stage detection runs on
func DetectionText(m models.Message) string {
	return strings.ToLower(m.Subject + " " + m.From + " " + prefix(m.Body, detectionBodyChars))
}

// prefix returns at most n bytes of s without splitting a rune
func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
