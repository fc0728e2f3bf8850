// Package seed holds the initial learning records and the demo accounts used in development.
package seed

import (
	"embed"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/academia/core/learning"
	"github.com/trezcool/academia/core/user"
)

//go:embed fixtures/*.yaml
var fixturesFS embed.FS

// DemoUser is an account created on first start in debug mode.
type DemoUser struct {
	Name     string   `yaml:"name"`
	Username string   `yaml:"username"`
	Email    string   `yaml:"email"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
}

func (du DemoUser) NewUser() user.NewUser {
	return user.NewUser{
		Name:            du.Name,
		Username:        du.Username,
		Email:           du.Email,
		Password:        du.Password,
		PasswordConfirm: du.Password,
		Roles:           du.Roles,
	}
}

func decode(name string, out interface{}) error {
	data, err := fixturesFS.ReadFile("fixtures/" + name)
	if err != nil {
		return errors.Wrapf(err, "reading %s", name)
	}
	return errors.Wrapf(yaml.Unmarshal(data, out), "decoding %s", name)
}

// Learning returns the initial records of every collection.
func Learning() (learning.Seed, error) {
	var s learning.Seed
	err := decode("learning.yaml", &s)
	return s, err
}

func DemoUsers() ([]DemoUser, error) {
	var doc struct {
		Users []DemoUser `yaml:"users"`
	}
	err := decode("users.yaml", &doc)
	return doc.Users, err
}

// CreateDemoUsers creates the demo accounts that do not exist yet.
func CreateDemoUsers(svc user.Service) ([]user.User, error) {
	demo, err := DemoUsers()
	if err != nil {
		return nil, err
	}

	created := make([]user.User, 0, len(demo))
	for _, du := range demo {
		if err = svc.CheckUniqueness(du.Username, du.Email); err != nil {
			continue
		}
		usr, err := svc.Create(du.NewUser())
		if err != nil {
			return created, errors.Wrapf(err, "creating %s", du.Username)
		}
		created = append(created, usr)
	}
	return created, nil
}
