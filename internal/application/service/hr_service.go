package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/signage-ops/internal/application/dispatcher"
	"github.com/garyjia/signage-ops/internal/application/port"
	"github.com/garyjia/signage-ops/internal/domain/effect"
	"github.com/garyjia/signage-ops/internal/domain/entity"
	"github.com/garyjia/signage-ops/internal/i18n"
	"github.com/garyjia/signage-ops/pkg/utils"
)

// DefaultDept is where a new employee lands when the form leaves dept empty
const DefaultDept = "行政部"

// OnboardForm is the HR onboarding form
type OnboardForm struct {
	Name          string `json:"name"`
	Dept          string `json:"dept"`
	Phone         string `json:"phone"`
	JoinDate      string `json:"join_date,omitempty"`
	AlipayAccount string `json:"alipay_account,omitempty"`
}

// HRService manages the staff roster. Joining and leaving staff are announced
// to the approval feed as self-approved notices.
type HRService interface {
	Onboard(ctx context.Context, form OnboardForm) (*entity.Employee, entity.ApprovalRequest, error)
	Offboard(ctx context.Context, employeeID, date string) (*entity.Employee, entity.ApprovalRequest, error)
	Reinstate(ctx context.Context, employeeID string) (*entity.Employee, error)
	Get(ctx context.Context, employeeID string) (*entity.Employee, error)
	List(ctx context.Context, status string) ([]*entity.Employee, error)
}

type hrServiceImpl struct {
	roster     port.StaffRoster
	effects    dispatcher.EffectDispatcher
	translator *i18n.Translator
	logger     Logger
	now        func() time.Time
}

// NewHRService creates a new HRService
func NewHRService(
	roster port.StaffRoster,
	effects dispatcher.EffectDispatcher,
	translator *i18n.Translator,
	logger Logger,
) HRService {
	return &hrServiceImpl{
		roster:     roster,
		effects:    effects,
		translator: translator,
		logger:     logger,
		now:        time.Now,
	}
}

// Onboard adds an active employee whose login name is the phone number
func (s *hrServiceImpl) Onboard(ctx context.Context, form OnboardForm) (*entity.Employee, entity.ApprovalRequest, error) {
	name := utils.SanitizeString(form.Name)
	if name == "" {
		return nil, entity.ApprovalRequest{}, entity.Validationf("onboard: name is required")
	}
	phone := strings.TrimSpace(form.Phone)
	if err := utils.ValidatePhone(phone); err != nil {
		return nil, entity.ApprovalRequest{}, entity.Validationf("onboard: %v", err)
	}
	dept := utils.SanitizeString(form.Dept)
	if dept == "" {
		dept = DefaultDept
	}
	joinDate := strings.TrimSpace(form.JoinDate)
	if joinDate == "" {
		joinDate = s.now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, joinDate); err != nil {
		return nil, entity.ApprovalRequest{}, entity.Validationf("onboard: join date %q is not YYYY-MM-DD", joinDate)
	}

	emp := &entity.Employee{
		ID:            uuid.NewString(),
		Name:          name,
		Dept:          dept,
		Phone:         phone,
		Username:      phone,
		Status:        entity.EmployeeStatusActive,
		JoinDate:      joinDate,
		AlipayAccount: strings.TrimSpace(form.AlipayAccount),
	}
	if err := s.roster.Add(ctx, emp); err != nil {
		s.logger.Error("Failed to add employee", "error", err, "name", name)
		return nil, entity.ApprovalRequest{}, fmt.Errorf("add employee: %w", err)
	}
	s.logger.Info("Employee onboarded", "employee_id", emp.ID, "name", emp.Name, "dept", emp.Dept)

	ctx = i18n.WithLocale(ctx, s.translator.DefaultLocale())
	notice := s.notice(ctx, "NOTIFY-JOIN-", entity.NoticeTypeJoin,
		s.translator.T(ctx, "notice.join.amount", nil),
		s.translator.T(ctx, "notice.join.detail", map[string]interface{}{
			"Name":     emp.Name,
			"Dept":     emp.Dept,
			"Username": emp.Username,
		}),
	)
	return emp, notice, s.announce(ctx, emp, notice)
}

// Offboard marks an active employee as gone on date (today when empty)
func (s *hrServiceImpl) Offboard(ctx context.Context, employeeID, date string) (*entity.Employee, entity.ApprovalRequest, error) {
	emp, err := s.roster.Get(ctx, employeeID)
	if err != nil {
		return nil, entity.ApprovalRequest{}, err
	}
	if emp.Status == entity.EmployeeStatusOffboarded {
		return nil, entity.ApprovalRequest{}, fmt.Errorf("%w: employee %s already offboarded", entity.ErrInvalidState, employeeID)
	}

	date = strings.TrimSpace(date)
	if date == "" {
		date = s.now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, entity.ApprovalRequest{}, entity.Validationf("offboard: date %q is not YYYY-MM-DD", date)
	}

	emp.Status = entity.EmployeeStatusOffboarded
	emp.OffboardDate = date
	if err := s.roster.Update(ctx, emp); err != nil {
		s.logger.Error("Failed to offboard employee", "error", err, "employee_id", employeeID)
		return nil, entity.ApprovalRequest{}, fmt.Errorf("update employee: %w", err)
	}
	s.logger.Info("Employee offboarded", "employee_id", emp.ID, "name", emp.Name, "date", date)

	ctx = i18n.WithLocale(ctx, s.translator.DefaultLocale())
	notice := s.notice(ctx, "NOTIFY-LEAVE-", entity.NoticeTypeOffboard,
		s.translator.T(ctx, "notice.leave.amount", nil),
		s.translator.T(ctx, "notice.leave.detail", map[string]interface{}{
			"Name": emp.Name,
			"Dept": emp.Dept,
			"Date": date,
		}),
	)
	return emp, notice, s.announce(ctx, emp, notice)
}

// Reinstate reactivates an offboarded employee. No notice is published.
func (s *hrServiceImpl) Reinstate(ctx context.Context, employeeID string) (*entity.Employee, error) {
	emp, err := s.roster.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp.Status == entity.EmployeeStatusActive {
		return nil, fmt.Errorf("%w: employee %s is already active", entity.ErrInvalidState, employeeID)
	}

	emp.Status = entity.EmployeeStatusActive
	emp.OffboardDate = ""
	if err := s.roster.Update(ctx, emp); err != nil {
		s.logger.Error("Failed to reinstate employee", "error", err, "employee_id", employeeID)
		return nil, fmt.Errorf("update employee: %w", err)
	}

	s.logger.Info("Employee reinstated", "employee_id", emp.ID, "name", emp.Name)
	return emp, nil
}

func (s *hrServiceImpl) Get(ctx context.Context, employeeID string) (*entity.Employee, error) {
	return s.roster.Get(ctx, employeeID)
}

func (s *hrServiceImpl) List(ctx context.Context, status string) ([]*entity.Employee, error) {
	switch status {
	case "", entity.EmployeeStatusActive, entity.EmployeeStatusOffboarded:
	default:
		return nil, entity.Validationf("unknown employee status %q", status)
	}
	return s.roster.List(ctx, status)
}

func (s *hrServiceImpl) notice(ctx context.Context, idPrefix, noticeType, amountDisplay, detail string) entity.ApprovalRequest {
	now := s.now()
	return entity.ApprovalRequest{
		ID:            idPrefix + uuid.NewString(),
		RequesterID:   s.translator.T(ctx, "notice.requester", nil),
		RequesterDept: s.translator.T(ctx, "notice.dept", nil),
		Kind:          entity.KindStaffLifecycleNotice,
		AmountDisplay: amountDisplay,
		Detail:        detail,
		CreatedAt:     now,
		Status:        entity.StatusApproved,
		Metadata:      &entity.Metadata{NoticeType: noticeType},
		DecidedAt:     &now,
	}
}

// announce dispatches the notice. The roster change stays committed when it fails.
func (s *hrServiceImpl) announce(ctx context.Context, emp *entity.Employee, notice entity.ApprovalRequest) error {
	err := s.effects.Apply(ctx, []effect.SideEffect{effect.AppendNotification{Record: notice}})
	if err != nil {
		s.logger.Error("Failed to publish staff notice", "error", err, "employee_id", emp.ID, "notice_id", notice.ID)
		return fmt.Errorf("employee %s updated: %w", emp.ID, err)
	}
	return nil
}
