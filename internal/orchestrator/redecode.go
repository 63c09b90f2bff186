package orchestrator

import (
	"context"

	"github.com/gurbani-transcribe/core/pkg/types"
)

// redecode implements spec.md §4.5's re-decode step: when the first fusion
// pass falls below the redecode floor, every selected engine is invoked a
// second time (mirroring internal/fusion's own re-decode trigger) and the
// two hypothesis sets are merged by re-running Fuse over their union. If
// the second pass doesn't improve the fused confidence, the original
// result is kept so a noisy retry can't make things worse.
func (o *Orchestrator) redecode(ctx context.Context, chunk types.AudioChunk, kind types.RouteKind, languageHint string, first types.FusionResult, asrSem *workerSem, errs *[]string) types.FusionResult {
	retryHyps := o.runASRFanout(ctx, chunk, kind, languageHint, asrSem, errs)

	combined := append(append([]types.Hypothesis(nil), first.PerEngineHypotheses...), retryHyps...)
	second := o.fuser.Fuse(combined)

	if second.FusedConfidence <= first.FusedConfidence {
		return first
	}
	return second
}
