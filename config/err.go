package config

import (
	"github.com/ezrec/palx/translate"
)

var f = translate.From

type ErrConfigValue struct {
	Name   string
	Reason string
}

func (err ErrConfigValue) Error() string {
	return f("config %v: %v", err.Name, err.Reason)
}

type ErrDefine string

func (err ErrDefine) Error() string {
	return f("%v is not a valid NAME=VALUE definition", string(err))
}
