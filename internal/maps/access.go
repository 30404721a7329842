package maps

// CanUseMap decides whether a driver may use map features right now.
// Pure function of its inputs; callers supply current standing.
func CanUseMap(in AccessInput) AccessDecision {
	if !in.IsOnline {
		return denied(DenyOffline, "Go online to use map features")
	}

	switch in.SubscriptionStatus {
	case StatusSuspended:
		return denied(DenySuspended, "Map access is disabled while your account is suspended")
	case StatusCancelled:
		return denied(DenyCancelled, "Map access requires an active subscription")
	case StatusTrial:
		if in.TrialExpired {
			return denied(DenyTrialExpired, "Your trial has ended. Subscribe to keep using map features")
		}
	case StatusLimited:
		return denied(DenyLimitedAccess, "Clear your outstanding payment to use map features")
	}

	// Turn-by-turn updates only make sense during a ride.
	if in.RequestType == RequestNavigation && !in.HasActiveRide {
		return denied(DenyNoActiveRide, "Navigation is only available during an active ride")
	}

	return AccessDecision{Allowed: true}
}

func denied(reason, message string) AccessDecision {
	return AccessDecision{
		Allowed: false,
		Reason:  reason,
		Message: message,
	}
}
