package main

import "strconv"

// uint64Flag and boolFlag track whether the user set them explicitly,
// so a -config file's values can be overridden on the command line
// without the flag package's zero value silently winning.
type uint64Flag struct {
	v   uint64
	set bool
}

func (f *uint64Flag) String() string {
	return strconv.FormatUint(f.v, 10)
}

func (f *uint64Flag) Set(s string) error {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	f.v = v
	f.set = true
	return nil
}

type boolFlag struct {
	v   bool
	set bool
}

func (f *boolFlag) String() string {
	return strconv.FormatBool(f.v)
}

func (f *boolFlag) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	f.v = v
	f.set = true
	return nil
}

func (f *boolFlag) IsBoolFlag() bool { return true }
