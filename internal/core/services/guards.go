package services

import (
	"errors"
	"fmt"
	"slices"

	"github.com/JeanGrijp/cardguard/internal/core/domain"
	"github.com/JeanGrijp/cardguard/internal/metrics"
)

// InstallGuards instala os guards uma única vez e devolve o relatório da
// instalação. Chamadas seguintes devolvem o mesmo relatório sem reinstalar.
// Em produção deve rodar depois da primeira montagem da página.
func (s *ProtectionService) InstallGuards() []domain.GuardReport {
	s.installOnce.Do(func() {
		reports := make([]domain.GuardReport, 0, len(domain.InstallOrder))
		for _, g := range domain.InstallOrder {
			report := s.installGuard(g)
			metrics.GuardInstalls.WithLabelValues(string(g), string(report.Status)).Inc()
			reports = append(reports, report)
		}
		s.reports = reports
	})
	return slices.Clone(s.reports)
}

func (s *ProtectionService) installGuard(g domain.Guard) domain.GuardReport {
	if !s.config.Mode.IsProduction() {
		return domain.GuardReport{Guard: g, Status: domain.GuardDisabled, Reason: fmt.Sprintf("execution mode %q", s.config.Mode)}
	}
	if !s.config.Guards.Enabled(g) {
		return domain.GuardReport{Guard: g, Status: domain.GuardDisabled, Reason: "turned off by configuration"}
	}

	install, ok := s.installers()[g]
	if !ok {
		return domain.GuardReport{Guard: g, Status: domain.GuardSkipped, Reason: "no installer"}
	}

	err := protect(install)
	switch {
	case err == nil:
		s.log.Debugw("Guard installed", "guard", g)
		return domain.GuardReport{Guard: g, Status: domain.GuardInstalled}
	case domain.IsCapabilityUnavailable(err):
		return domain.GuardReport{Guard: g, Status: domain.GuardSkipped, Reason: err.Error()}
	default:
		s.log.Warnw("Guard installation failed", "guard", g, "error", err)
		return domain.GuardReport{Guard: g, Status: domain.GuardFailed, Reason: err.Error()}
	}
}

func (s *ProtectionService) installers() map[domain.Guard]func() error {
	return map[domain.Guard]func() error{
		domain.GuardInspection:  s.installInspection,
		domain.GuardContextMenu: s.installContextMenu,
		domain.GuardConsole:     s.installConsole,
		domain.GuardFetch:       s.installFetch,
		domain.GuardFraming:     s.installFraming,
		domain.GuardSourceView:  s.installSourceView,
		domain.GuardEvalAudit:   s.installEvalAudit,
		domain.GuardGlobals:     s.installGlobals,
	}
}

func (s *ProtectionService) installInspection() error {
	if s.caps.Keyboard == nil {
		return domain.ErrCapabilityUnavailable
	}
	return s.caps.Keyboard.OnKeyDown(s.onKeyDown)
}

func (s *ProtectionService) onKeyDown(k domain.KeyStroke) bool {
	if !domain.IsInspectionShortcut(k) {
		return false
	}
	metrics.GuardInterventions.WithLabelValues(string(domain.GuardInspection)).Inc()

	if domain.IsViewSourceShortcut(k) && s.config.Guards.Enabled(domain.GuardSourceView) && s.caps.Notifier != nil {
		if err := protect(func() error { return s.caps.Notifier.Alert(domain.SourceAccessMessage) }); err != nil {
			s.log.Warnw("Source access notice failed", "error", err)
		}
	}
	return true
}

func (s *ProtectionService) installContextMenu() error {
	if s.caps.ContextMenu == nil {
		return domain.ErrCapabilityUnavailable
	}
	return s.caps.ContextMenu.OnContextMenu(func() bool {
		metrics.GuardInterventions.WithLabelValues(string(domain.GuardContextMenu)).Inc()
		return true
	})
}

func (s *ProtectionService) installConsole() error {
	if s.caps.Console == nil {
		return domain.ErrCapabilityUnavailable
	}
	return s.caps.Console.SilenceInfo()
}

func (s *ProtectionService) installFetch() error {
	if s.caps.Fetch == nil {
		return domain.ErrCapabilityUnavailable
	}
	return s.caps.Fetch.Intercept(s.filterFetch)
}

func (s *ProtectionService) filterFetch(target string) error {
	if !domain.IsExtensionTarget(target) {
		return nil
	}
	metrics.GuardInterventions.WithLabelValues(string(domain.GuardFetch)).Inc()
	return domain.ErrExtensionBlocked
}

func (s *ProtectionService) installFraming() error {
	if s.caps.Frame == nil {
		return domain.ErrCapabilityUnavailable
	}
	framed, err := s.caps.Frame.Framed()
	if err != nil {
		return fmt.Errorf("frame identity check: %w", err)
	}
	if !framed {
		return nil
	}
	metrics.GuardInterventions.WithLabelValues(string(domain.GuardFraming)).Inc()
	return s.caps.Frame.BreakOut()
}

func (s *ProtectionService) installSourceView() error {
	if s.caps.Location == nil {
		return domain.ErrCapabilityUnavailable
	}
	protocol, err := s.caps.Location.Protocol()
	if err != nil {
		return fmt.Errorf("location protocol: %w", err)
	}
	if protocol != domain.ViewSourceProtocol {
		return nil
	}
	metrics.GuardInterventions.WithLabelValues(string(domain.GuardSourceView)).Inc()
	return s.caps.Location.Navigate(domain.BlankPage)
}

func (s *ProtectionService) installEvalAudit() error {
	if s.caps.Eval == nil {
		return domain.ErrCapabilityUnavailable
	}
	return s.caps.Eval.Audit(func(kind string) {
		metrics.GuardInterventions.WithLabelValues(string(domain.GuardEvalAudit)).Inc()
		s.log.Warnw("Dynamic code evaluation detected", "kind", kind)
	})
}

func (s *ProtectionService) installGlobals() error {
	if s.caps.Globals == nil {
		return domain.ErrCapabilityUnavailable
	}
	var errs []error
	for _, name := range domain.DebugGlobals {
		if err := s.caps.Globals.Delete(name); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", name, err))
		}
	}
	for _, name := range domain.LockedGlobals {
		if err := s.caps.Globals.Lock(name); err != nil {
			errs = append(errs, fmt.Errorf("lock %s: %w", name, err))
		}
	}
	if err := s.caps.Globals.ObscureFunctionSource(domain.OpaqueFunctionSource); err != nil {
		errs = append(errs, fmt.Errorf("obscure function source: %w", err))
	}
	return errors.Join(errs...)
}
