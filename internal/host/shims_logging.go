package host

import (
	"fmt"
	"io"
	"strings"

	"waspy/internal/trace"
)

const (
	levelWarning = 30
	levelError   = 40

	defaultLogFormat = "%(levelname)s:%(name)s:%(message)s"
)

type logger struct {
	name     string
	level    int64
	handlers []*streamHandler
}

func (l *logger) typeName() string { return "logging.Logger" }
func (l *logger) pyStr() string    { return l.pyRepr() }
func (l *logger) pyRepr() string {
	return fmt.Sprintf("<Logger %s (%s)>", l.name, levelName(l.level))
}

type streamHandler struct {
	level  int64
	format string
}

func (h *streamHandler) typeName() string { return "logging.StreamHandler" }

type formatter struct{ format string }

func (f *formatter) typeName() string { return "logging.Formatter" }

// logState is the logger hierarchy of one instance.
type logState struct {
	root     *logger
	loggers  map[string]*logger
	disabled int64
}

func newLogState() *logState {
	return &logState{
		root:    &logger{name: "root", level: levelWarning},
		loggers: make(map[string]*logger),
	}
}

func (s *logState) get(name string) *logger {
	if name == "" || name == "root" {
		return s.root
	}
	l, ok := s.loggers[name]
	if !ok {
		l = &logger{name: name}
		s.loggers[name] = l
	}
	return l
}

// parent follows the dotted name up to the nearest existing logger.
func (s *logState) parent(l *logger) *logger {
	if l == s.root {
		return nil
	}
	name := l.name
	for {
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			return s.root
		}
		name = name[:i]
		if p, ok := s.loggers[name]; ok {
			return p
		}
	}
}

func (s *logState) effective(l *logger) int64 {
	for cur := l; cur != nil; cur = s.parent(cur) {
		if cur.level != 0 {
			return cur.level
		}
	}
	return 0
}

func (s *logState) enabled(l *logger, level int64) bool {
	return s.disabled < level && level >= s.effective(l)
}

// basicConfig installs a root handler unless one is already there.
func (s *logState) basicConfig(level int64, format string) {
	if len(s.root.handlers) > 0 {
		return
	}
	if format == "" {
		format = defaultLogFormat
	}
	s.root.handlers = append(s.root.handlers, &streamHandler{format: format})
	s.root.level = level
}

func (s *logState) log(c *call, l *logger, level int64, msg string) {
	if !s.enabled(l, level) {
		return
	}
	handled := false
	for cur := l; cur != nil; cur = s.parent(cur) {
		for _, h := range cur.handlers {
			handled = true
			if level >= h.level {
				c.in.writeLog(formatRecord(h.format, l.name, level, msg, c))
			}
		}
	}
	// без обработчиков пишет только сообщение, начиная с WARNING
	if !handled && level >= levelWarning {
		c.in.writeLog(msg)
	}
}

func (in *Instance) writeLog(line string) {
	_, _ = io.WriteString(in.opts.Stderr, line+"\n")
	trace.Point(in.opts.Tracer, trace.ScopeProgram, "log", line)
}

func levelName(level int64) string {
	switch level {
	case 0:
		return "NOTSET"
	case 10:
		return "DEBUG"
	case 20:
		return "INFO"
	case levelWarning:
		return "WARNING"
	case levelError:
		return "ERROR"
	case 50:
		return "CRITICAL"
	}
	return fmt.Sprintf("Level %d", level)
}

// formatRecord expands %(key)<spec> fields of a logging format string.
func formatRecord(format, name string, level int64, msg string, c *call) string {
	var sb strings.Builder
	for {
		i := strings.Index(format, "%(")
		if i < 0 {
			sb.WriteString(format)
			break
		}
		end := strings.IndexByte(format[i:], ')')
		if end < 0 {
			sb.WriteString(format)
			break
		}
		sb.WriteString(format[:i])
		key := format[i+2 : i+end]
		rest := format[i+end+1:]
		j := strings.IndexAny(rest, "sdfr")
		if j < 0 {
			sb.WriteString(format[i:])
			break
		}
		spec, conv := rest[:j], rest[j]
		var v any
		switch key {
		case "levelname":
			v = levelName(level)
		case "levelno":
			v = level
		case "name":
			v = name
		case "message":
			v = msg
		case "asctime":
			now := c.in.opts.Now()
			v = now.Format("2006-01-02 15:04:05") + fmt.Sprintf(",%03d", now.Nanosecond()/1e6)
		case "module":
			v = GuestName
		default:
			v = "%(" + key + ")"
		}
		switch conv {
		case 'd':
			n, ok := v.(int64)
			if !ok {
				conv = 'v'
			} else {
				v = n
			}
		case 'f':
			if n, ok := v.(int64); ok {
				v = float64(n)
			} else {
				conv = 'v'
			}
		default:
			conv = 'v'
		}
		fmt.Fprintf(&sb, "%"+spec+string(conv), v)
		format = rest[j+1:]
	}
	return sb.String()
}

func loggerArg(args []any) *logger {
	l, _ := args[0].(*logger)
	return l
}

func init() {
	levels := map[string]int64{
		"debug": 10, "info": 20, "warning": levelWarning, "warn": levelWarning,
		"error": levelError, "exception": levelError, "critical": 50, "fatal": 50,
	}
	for name, level := range levels {
		// функции модуля настраивают корневой логгер при первом вызове
		register("logging", name, func(c *call, args []any) (any, error) {
			s := c.in.state.log
			s.basicConfig(s.root.level, "")
			s.log(c, s.root, level, strArg(args, 0))
			return nil, nil
		})
		if name == "warn" || name == "fatal" {
			continue
		}
		register("logging", "Logger."+name, func(c *call, args []any) (any, error) {
			c.in.state.log.log(c, loggerArg(args), level, strArg(args, 1))
			return nil, nil
		})
	}
	register("logging", "log", func(c *call, args []any) (any, error) {
		s := c.in.state.log
		s.basicConfig(s.root.level, "")
		s.log(c, s.root, intArg(args, 0), strArg(args, 1))
		return nil, nil
	})
	register("logging", "basicConfig", func(c *call, args []any) (any, error) {
		c.in.state.log.basicConfig(intArg(args, 0), strArg(args, 1))
		return nil, nil
	})
	register("logging", "setLevel", func(c *call, args []any) (any, error) {
		c.in.state.log.root.level = intArg(args, 0)
		return nil, nil
	})
	register("logging", "disable", func(c *call, args []any) (any, error) {
		c.in.state.log.disabled = intArg(args, 0)
		return nil, nil
	})
	register("logging", "getLogger", func(c *call, args []any) (any, error) {
		return c.in.state.log.get(strArg(args, 0)), nil
	})

	register("logging", "Logger.log", func(c *call, args []any) (any, error) {
		c.in.state.log.log(c, loggerArg(args), intArg(args, 1), strArg(args, 2))
		return nil, nil
	})
	register("logging", "Logger.setLevel", func(_ *call, args []any) (any, error) {
		loggerArg(args).level = intArg(args, 1)
		return nil, nil
	})
	register("logging", "Logger.addHandler", func(_ *call, args []any) (any, error) {
		l := loggerArg(args)
		if h, ok := args[1].(*streamHandler); ok {
			l.handlers = append(l.handlers, h)
		}
		return nil, nil
	})
	register("logging", "Logger.isEnabledFor", func(c *call, args []any) (any, error) {
		return c.in.state.log.enabled(loggerArg(args), intArg(args, 1)), nil
	})
	register("logging", "Logger.name", func(_ *call, args []any) (any, error) { return loggerArg(args).name, nil })
	register("logging", "Logger.level", func(_ *call, args []any) (any, error) { return loggerArg(args).level, nil })

	register("logging", "StreamHandler", func(*call, []any) (any, error) {
		return &streamHandler{format: "%(message)s"}, nil
	})
	register("logging", "StreamHandler.setLevel", func(_ *call, args []any) (any, error) {
		if h, ok := args[0].(*streamHandler); ok {
			h.level = intArg(args, 1)
		}
		return nil, nil
	})
	register("logging", "StreamHandler.setFormatter", func(_ *call, args []any) (any, error) {
		h, ok := args[0].(*streamHandler)
		f, fok := args[1].(*formatter)
		if ok && fok {
			h.format = f.format
		}
		return nil, nil
	})
	register("logging", "Formatter", func(_ *call, args []any) (any, error) {
		return &formatter{format: strArg(args, 0)}, nil
	})
}
