package tally

import "ballot-app-go/internal/apperr"

var ErrTallyUnavailable = apperr.New(apperr.KindState, "tally_unavailable", "results are not available yet")
