package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/abab/abab/pkg/consensus"
)

func TestCollectorRecordsVotesAndHeight(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.VoteReceived(consensus.TagVote)
	c.VoteReceived(consensus.TagVote)
	c.VoteReceived(consensus.TagViewChange)
	c.ViewChanged(1, 1)
	c.Committed(1)
	c.SetHeightView(2, 0)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := map[string]*dto.MetricFamily{}
	for _, f := range families {
		found[f.GetName()] = f
	}

	votes, ok := found["abab_votes_received_total"]
	if !ok {
		t.Fatal("abab_votes_received_total not gathered")
	}
	byTag := map[string]float64{}
	for _, m := range votes.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "tag" {
				byTag[l.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	if byTag["vote"] != 2 || byTag["view-change"] != 1 {
		t.Errorf("abab_votes_received_total by tag = %v, want vote=2 view-change=1", byTag)
	}
	height, ok := found["abab_height"]
	if !ok || height.GetMetric()[0].GetGauge().GetValue() != 2 {
		t.Errorf("abab_height = %v, want 2", height)
	}
	commits, ok := found["abab_commits_total"]
	if !ok || commits.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Errorf("abab_commits_total = %v, want 1", commits)
	}
	viewChanges, ok := found["abab_view_changes_total"]
	if !ok || viewChanges.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Errorf("abab_view_changes_total = %v, want 1", viewChanges)
	}
}
