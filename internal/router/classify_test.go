package router

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		task string
		want TaskType
	}{
		{"check memory usage", TaskDiagnostic},
		{"what is the system status", TaskDiagnostic},
		{"list the files in the workspace", TaskFileAnalysis},
		{"analyze the contents of the logs", TaskFileAnalysis},
		{"propose a configuration change", TaskChangeProposal},
		{"write a summary document", TaskChangeProposal},
		{"check disk usage and update the report file", TaskComposite},
		{"read config.yaml and propose a fix", TaskComposite},
		{"", TaskDiagnostic},
		{"do the usual", TaskDiagnostic},
		{"DISK usage please", TaskDiagnostic},
	}
	for _, tc := range cases {
		if got := Classify(tc.task); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.task, got, tc.want)
		}
	}
}

func TestClassify_Idempotent(t *testing.T) {
	t.Parallel()

	tasks := []string{"check memory", "read files and propose edits", "", "hello"}
	for _, task := range tasks {
		first := Classify(task)
		for range 5 {
			if got := Classify(task); got != first {
				t.Fatalf("Classify(%q) not stable: %s then %s", task, first, got)
			}
		}
	}
}

func TestSteps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		task string
		want []TaskType
	}{
		{
			"check disk usage, read the files, and propose a fix",
			[]TaskType{TaskDiagnostic, TaskFileAnalysis, TaskChangeProposal},
		},
		// Composite runs only the matched categories, still in order.
		{
			"check memory and propose a change",
			[]TaskType{TaskDiagnostic, TaskChangeProposal},
		},
		{"list the files", []TaskType{TaskFileAnalysis}},
		{"nothing recognizable", []TaskType{TaskDiagnostic}},
	}
	for _, tc := range cases {
		got := steps(tc.task)
		if len(got) != len(tc.want) {
			t.Errorf("steps(%q) = %v, want %v", tc.task, got, tc.want)
			continue
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("steps(%q) = %v, want %v", tc.task, got, tc.want)
				break
			}
		}
	}
}
