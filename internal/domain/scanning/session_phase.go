package scanning

import (
	"fmt"

	"github.com/ahrav/scanbridge/internal/domain/ident"
)

// validatePhaseTransition checks if a protocol phase transition is valid
// and returns an error if not.
func validatePhaseTransition(from, to ident.ProtoOp) error {
	if !isValidPhaseTransition(from, to) {
		return fmt.Errorf("invalid session phase transition from %s to %s", from, to)
	}
	return nil
}

// isValidPhaseTransition encodes the device protocol ordering. Prechecking
// is optional (eSCL devices accept a scan outright), loading repeats within
// its own phase, and a failed load detours through check before the
// protocol either resumes loading or winds down.
func isValidPhaseTransition(from, to ident.ProtoOp) bool {
	switch from {
	case ident.ProtoOpNone:
		// A fresh session either prechecks first or scans outright.
		return to == ident.ProtoOpPrecheck || to == ident.ProtoOpScan
	case ident.ProtoOpPrecheck:
		// After a precheck the scan is submitted, or the session winds down
		// when the device rejected it.
		return to == ident.ProtoOpScan || to == ident.ProtoOpCleanup || to == ident.ProtoOpFinish
	case ident.ProtoOpScan:
		// A submitted scan starts loading pages, or winds down on rejection.
		return to == ident.ProtoOpLoad || to == ident.ProtoOpCleanup || to == ident.ProtoOpFinish
	case ident.ProtoOpLoad:
		// Loading ends in a device check on error, or winds down when the
		// last page arrived.
		return to == ident.ProtoOpCheck || to == ident.ProtoOpCleanup || to == ident.ProtoOpFinish
	case ident.ProtoOpCheck:
		// A check either resumes loading or winds down.
		return to == ident.ProtoOpLoad || to == ident.ProtoOpCleanup || to == ident.ProtoOpFinish
	case ident.ProtoOpCleanup:
		return to == ident.ProtoOpFinish
	case ident.ProtoOpFinish:
		// Terminal phase - the device has been released.
		return false
	default:
		return false
	}
}
