package collstate

// hint is one candidate background-info message together with whether it
// currently applies; the first applicable hint, in order, wins.
type hint struct {
	message   string
	applies   bool
}

// BgInfo derives a service row's advisory "what's left to do" hint, ported
// from the original's generate_service_hints. Priority order: apply
// technical config, install TLS material, install mobile-ID token key,
// install TSP registration key, apply election config.
func BgInfo(svc ServiceRow) string {
	if svc.State == "REMOVED" {
		return ""
	}
	params := ServiceTypeParams[svc.ServiceType]

	hints := []hint{
		{"Apply technical config", svc.TechnicalConfVersion == ""},
	}
	if params.RequireTLS {
		hints = append(hints,
			hint{"Install service TLS key", !svc.TLSKey},
			hint{"Install service TLS certificate", !svc.TLSCert},
		)
	}
	if params.MobileID {
		hints = append(hints, hint{"Install mobile ID identity token key", !svc.MobileIDTokenKey})
	}
	if params.Tspreg {
		hints = append(hints, hint{"Install TSP registration key", !svc.TspregKey})
	}
	if params.RequireConfig {
		hints = append(hints, hint{"Apply election config", svc.ElectionConfVersion == ""})
	}

	for _, h := range hints {
		if h.applies {
			return h.message
		}
	}
	return ""
}
