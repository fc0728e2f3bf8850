package main

import (
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	usr, err := cli.usrSvc.GetByUsernameOrEmail(uname)
	if err != nil {
		return err
	}
	if msg := user.CheckPassword(pwd, usr.Name, usr.Username, usr.Email); msg != "" {
		return errors.New(msg)
	}
	if _, err := cli.usrSvc.SetPassword(usr.ID, pwd); err != nil {
		return err
	}
	return nil
}
