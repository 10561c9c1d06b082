package session

import (
	"context"

	"github.com/san-kum/hydrolab/internal/chem"
	"github.com/san-kum/hydrolab/internal/client"
	"github.com/san-kum/hydrolab/internal/grid"
)

// Gateway is the slice of the remote service the controller drives.
// *client.Client satisfies it; tests substitute a fake.
type Gateway interface {
	Health(ctx context.Context) (string, error)
	Chemistry(ctx context.Context) (chem.Snapshot, error)
	ChemistryGrid(ctx context.Context, parameter string, downsample int) (grid.Data, error)
	Step(ctx context.Context) error
	Reset(ctx context.Context) error
	Inject(ctx context.Context, nutrient, pollutant float64) error
	Heatwave(ctx context.Context, activate bool, intensity float64) error
	Targets(ctx context.Context) (client.TargetList, error)
	SelectTarget(ctx context.Context, id string) (client.SelectResult, error)
	Lessons(ctx context.Context, targetID string) ([]client.LessonPreset, error)
	RunLesson(ctx context.Context, id string) (client.LessonResult, error)
	DeployRemediation(ctx context.Context, x, y, radius int, kind string, intensity float64) (client.DeployResult, error)
	RemediationSummary(ctx context.Context) (client.RemediationSummary, error)
	Compliance(ctx context.Context) (client.ComplianceReport, error)
	ComplianceHistory(ctx context.Context) (client.ComplianceHistory, error)
}

var _ Gateway = (*client.Client)(nil)
