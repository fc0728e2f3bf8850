package learning

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

// HireRequest onboards a team member: a user account plus an Employee record.
type HireRequest struct {
	user.NewUser
	Department string `json:"department" validate:"notblank"`
	Title      string `json:"title" validate:"notblank"`
}

func (hr *HireRequest) Validate(validate *validator.Validate, svc user.Service) error {
	hr.Department = core.CleanString(hr.Department)
	hr.Title = core.CleanString(hr.Title)
	hr.NewUser.Clean()

	if err := validate.Struct(hr); err != nil {
		return err
	}
	return svc.CheckUniqueness(hr.Username, hr.Email)
}

type Hire struct {
	User     user.User `json:"user"`
	Employee Employee  `json:"employee"`
}

type WelcomeData struct {
	Name       string
	Department string
	Username   string
}

// HireEmployee creates the account and the Employee record, then sends the welcome email.
// hr must have been validated. The account is removed again when the record cannot be saved.
func (svc *Service) HireEmployee(ctx context.Context, hr HireRequest) (Hire, error) {
	usr, err := svc.users.Create(hr.NewUser)
	if err != nil {
		return Hire{}, errors.Wrap(err, "creating user")
	}

	emp := Employee{
		ID:         uuid.NewString(),
		UserID:     usr.ID,
		Name:       usr.Name,
		Email:      usr.Email,
		Department: hr.Department,
		Title:      hr.Title,
		Status:     EmployeeActive,
		JoinedAt:   svc.now().UTC(),
	}
	if err = svc.Employees.Add(ctx, emp); err != nil {
		if dErr := svc.users.Delete(usr.ID); dErr != nil {
			svc.logger.Error(fmt.Sprintf("learning.HireEmployee: %v", dErr), dErr, usr)
		}
		return Hire{}, errors.Wrap(err, "adding employee")
	}

	svc.sendWelcomeMail(usr, emp)
	return Hire{User: usr, Employee: emp}, nil
}

func (svc *Service) sendWelcomeMail(usr user.User, emp Employee) {
	if usr.Email == "" || svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome to the team!",
		TemplateName: "welcome",
		TemplateData: WelcomeData{
			Name:       usr.Name,
			Department: emp.Department,
			Username:   usr.Username,
		},
	})
}
