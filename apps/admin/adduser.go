package main

import (
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(name, uname, email, pwd string, roles []string) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	for _, role := range roles {
		if user.RolePriority(role) == 0 {
			return errors.Errorf("invalid role %q", role)
		}
	}
	if msg := user.CheckPassword(pwd, name, uname, email); msg != "" {
		return errors.New(msg)
	}

	usr, err := cli.usrSvc.GetByUsername(uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		_, err = cli.usrSvc.Create(user.NewUser{
			Name:            name,
			Username:        uname,
			Email:           email,
			Password:        pwd,
			PasswordConfirm: pwd,
			Roles:           roles,
		})
		return errors.Wrap(err, "creating user")
	}

	if email == "" {
		email = usr.Email
	}
	active := true
	uu := user.UpdateUser{
		Name:     name,
		Username: usr.Username,
		Email:    email,
		Roles:    roles,
		IsActive: &active,
		Password: pwd,
	}
	if _, err = cli.usrSvc.Update(usr.ID, uu); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return nil
}
