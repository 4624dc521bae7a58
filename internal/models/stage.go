package models

import "strings"

// StageLabel tags one recognized milestone in a recruiting pipeline
type StageLabel uint8

const (
	StageSubmitted StageLabel = iota
	StageAptitudeTest
	StageSimulationTest
	StageCodingTest
	StageVideoInterview
	StageHumanInterview
	StageRejection
	StageOffer

	// NumStages is the number of stage labels; arrays indexed by StageLabel use it as their length
	NumStages = int(StageOffer) + 1
)

var stageNames = [NumStages]string{
	StageSubmitted:      "submitted",
	StageAptitudeTest:   "aptitude_test",
	StageSimulationTest: "simulation_test",
	StageCodingTest:     "coding_test",
	StageVideoInterview: "video_interview",
	StageHumanInterview: "human_interview",
	StageRejection:      "rejection",
	StageOffer:          "offer",
}

// AllStages returns every label in detection order
func AllStages() []StageLabel {
	stages := make([]StageLabel, NumStages)
	for i := range stages {
		stages[i] = StageLabel(i)
	}
	return stages
}

func (s StageLabel) String() string {
	if int(s) < NumStages {
		return stageNames[s]
	}
	return "unknown"
}

// StageSet is a set of stage labels
type StageSet uint16

// Add returns the set with s included
func (set StageSet) Add(s StageLabel) StageSet {
	return set | 1<<s
}

// Has reports whether s is in the set
func (set StageSet) Has(s StageLabel) bool {
	return set&(1<<s) != 0
}

// Empty reports whether no label is set
func (set StageSet) Empty() bool {
	return set == 0
}

// Labels lists the members in detection order
func (set StageSet) Labels() []StageLabel {
	var labels []StageLabel
	for _, s := range AllStages() {
		if set.Has(s) {
			labels = append(labels, s)
		}
	}
	return labels
}

func (set StageSet) String() string {
	labels := set.Labels()
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.String()
	}
	return strings.Join(names, ",")
}
