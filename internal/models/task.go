package models

import "strings"

// Task is the benchmark capability used as the primary ranking axis
type Task string

const (
	TaskRetrieval      Task = "Retrieval"
	TaskClassification Task = "Classification"
	TaskClustering     Task = "Clustering"
	TaskReranking      Task = "Reranking"
	TaskSTS            Task = "STS"
)

// Tasks lists the selectable tasks in display order. Each one is also a score
// column of the benchmark dataset.
var Tasks = []Task{
	TaskRetrieval,
	TaskClassification,
	TaskClustering,
	TaskReranking,
	TaskSTS,
}

// Valid reports whether t is one of the enumerated tasks
func (t Task) Valid() bool {
	for _, known := range Tasks {
		if t == known {
			return true
		}
	}
	return false
}

func (t Task) String() string {
	return string(t)
}

// ParseTask resolves a task name case-insensitively
func ParseTask(name string) (Task, bool) {
	name = strings.TrimSpace(name)
	for _, known := range Tasks {
		if strings.EqualFold(name, string(known)) {
			return known, true
		}
	}
	return "", false
}

// TaskNames returns the task names as plain strings
func TaskNames() []string {
	names := make([]string, len(Tasks))
	for i, t := range Tasks {
		names[i] = string(t)
	}
	return names
}
