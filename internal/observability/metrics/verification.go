package metrics

// VerificationPrepared records one prepared (or failed) contract payload.
func VerificationPrepared(chain, status string) {
	if !enabled {
		return
	}
	verificationPreparedTotal.WithLabelValues(chain, status).Inc()
}

// VerificationRun records the outcome of a preparation run. Finished runs
// are "ok", runs the consumer broke out of are "stopped" and "canceled"
// means the context ended first. Otherwise result names the error:
// "uninitialized", "unsupported_chain", "no_contracts",
// "invariant_violation" or "error".
func VerificationRun(result string) {
	if !enabled {
		return
	}
	verificationRunsTotal.WithLabelValues(result).Inc()
}
