package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dop251/goja"
	"github.com/tliron/commonlog"

	"github.com/feather-lang/jsnative"
	"github.com/feather-lang/jsnative/gojahost"
)

// session is one script heap with its registry and demo classes.
type session struct {
	host *gojahost.Host
	reg  *jsnative.Registry
	log  commonlog.Logger
	out  io.Writer
}

func newSession(cfg *Config, out io.Writer) (*session, error) {
	s := &session{
		host: gojahost.New(),
		reg:  jsnative.NewRegistry(&jsnative.Config{LogName: "jsnative", StrictProtocol: cfg.Runtime.StrictProtocol}),
		log:  commonlog.GetLogger("jsnative.cmd"),
		out:  out,
	}
	if err := installClasses(s.host, s.reg, cfg.Classes); err != nil {
		s.close()
		return nil, fmt.Errorf("install classes: %w", err)
	}
	for _, path := range cfg.Runtime.Preload {
		if err := s.runFile(path, false); err != nil {
			s.close()
			return nil, fmt.Errorf("preload %s: %w", path, err)
		}
	}
	return s, nil
}

// run evaluates src. The completion value is printed when echo is set and
// the value is not undefined.
func (s *session) run(src string, echo bool) error {
	err := s.host.Eval(src)
	defer s.host.Pop(1)
	if err != nil {
		return err
	}
	if echo {
		if v := s.host.Value(-1); !goja.IsUndefined(v) {
			fmt.Fprintln(s.out, v.String())
		}
	}
	return nil
}

func (s *session) runFile(path string, echo bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s.log.Debugf("running %s", path)
	return s.run(string(src), echo)
}

func (s *session) runReader(r io.Reader, echo bool) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return s.run(string(src), echo)
}

// close tears down the heap, which runs every pending finalizer, and then
// the registry.
func (s *session) close() {
	if err := s.host.Close(); err != nil {
		s.log.Warningf("close host: %v", err)
	}
	st := s.reg.Stats()
	s.log.Infof("constructors %d/%d, methods %d/%d, instances %d/%d freed",
		st.Constructors.Freed, st.Constructors.Allocated,
		st.Methods.Freed, st.Methods.Allocated,
		st.Instances.Freed, st.Instances.Allocated)
	if err := s.reg.Close(); err != nil {
		s.log.Warningf("close registry: %v", err)
	}
}
