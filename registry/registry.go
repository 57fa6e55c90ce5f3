package registry

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/proto3json/schema"
)

// ErrNotFound is returned (wrapped) when a lookup finds no definition.
var ErrNotFound = errors.New("not found")

// Registry allows us to store the schema of the protobuf messages. We look this up when we need to parse or marshal a message.
// Lookups are safe for concurrent use once loading has finished.
type Registry struct {
	// ProtoDirectories are the roots import paths are resolved against.
	ProtoDirectories []string

	mu       sync.RWMutex
	logger   log.Logger
	repo     *schema.ProtoRepo
	messages map[string]*schema.Message // fully qualified name -> message
	enums    map[string]*schema.Enum    // fully qualified name -> enum
	services map[string]*schema.Service // fully qualified name -> service

	parsedProtoBody map[string]*parser.Proto
	protoEntities   map[string]*protoFileEntity
}

type protoFileEntity struct {
	imports []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used while loading schemas.
func WithLogger(logger log.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry returns a registry that resolves imports against
// protoDirectories. The google.protobuf well-known types are always
// registered.
func NewRegistry(protoDirectories []string, opts ...Option) *Registry {
	r := &Registry{
		ProtoDirectories: protoDirectories,
		logger:           log.NewNopLogger(),
		repo:             &schema.ProtoRepo{ProtoFiles: make(map[string]*schema.ProtoFile)},
		messages:         make(map[string]*schema.Message),
		enums:            make(map[string]*schema.Enum),
		services:         make(map[string]*schema.Service),
		parsedProtoBody:  make(map[string]*parser.Proto),
		protoEntities:    make(map[string]*protoFileEntity),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.registerWellKnownTypes()
	return r
}

// LoadSchema Given a path it will recursively scan all *proto files inside it and register their definitions.
// A directory is also added to ProtoDirectories so imports inside it resolve.
func (r *Registry) LoadSchema(protoPath string) error {
	info, err := os.Stat(protoPath)
	if err != nil {
		return errors.Wrap(err, "path does not exist")
	}

	if !info.IsDir() {
		if !strings.HasSuffix(protoPath, ".proto") {
			return errors.Errorf("file %s is not a .proto file", protoPath)
		}
		if err := r.LoadSchemaFromFile(protoPath); err != nil {
			return errors.Wrap(err, "failed to load proto file")
		}
		return nil
	}

	r.addProtoDirectory(protoPath)
	var files []string
	err = filepath.WalkDir(protoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".proto") {
			return nil
		}
		rel, err := filepath.Rel(protoPath, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to walk directory")
	}

	for _, f := range files {
		if err := r.LoadSchemaFromFile(f); err != nil {
			return errors.Wrapf(err, "failed to load proto file %s", f)
		}
	}
	return nil
}

// LoadSchemaFromFile parses protoFile and everything it imports, then
// registers the definitions. protoFile may be relative to one of the
// ProtoDirectories or a path on disk.
func (r *Registry) LoadSchemaFromFile(protoFile string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	files, err := r.getAllProtoInfo(protoFile)
	if err != nil {
		return err
	}

	var fresh []string
	for _, f := range files {
		if _, done := r.repo.ProtoFiles[f]; !done {
			fresh = append(fresh, f)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	if err := r.buildSymbolTable(fresh); err != nil {
		return errors.Wrap(err, "failed to build symbol table")
	}
	level.Info(r.logger).Log("msg", "loaded proto files", "root", protoFile, "files", len(fresh))
	return nil
}

// buildSymbolTable converts freshly parsed files and registers them.
func (r *Registry) buildSymbolTable(files []string) error {
	// Pass 1: collect every type name so references resolve regardless of declaration order
	symbols := r.knownSymbols()
	for _, f := range files {
		ast := r.parsedProtoBody[f]
		pkg := packageOf(ast)
		collectNames(pkg, ast.ProtoBody, symbols)
	}

	// Pass 2: build message, enum and service definitions
	built := make([]*schema.ProtoFile, 0, len(files))
	for _, f := range files {
		pf, err := buildProtoFile(f, r.parsedProtoBody[f], symbols)
		if err != nil {
			return errors.Wrap(err, f)
		}
		if pf.Syntax == "proto2" {
			level.Warn(r.logger).Log("msg", "proto2 file loaded with proto3 JSON semantics", "path", f)
		}
		built = append(built, pf)
	}

	// Pass 3: register
	for i, pf := range built {
		if err := r.registerNames(pf); err != nil {
			return err
		}
		r.repo.ProtoFiles[files[i]] = pf
		level.Debug(r.logger).Log("msg", "registered proto file", "path", files[i], "package", pf.Package,
			"messages", len(pf.Messages), "enums", len(pf.Enums), "services", len(pf.Services))
	}
	return nil
}

func (r *Registry) knownSymbols() map[string]schema.TypeKind {
	symbols := make(map[string]schema.TypeKind, len(r.messages)+len(r.enums))
	for name := range r.messages {
		symbols[name] = schema.KindMessage
	}
	for name := range r.enums {
		symbols[name] = schema.KindEnum
	}
	return symbols
}

// registerNames registers all message, enum, and service names
func (r *Registry) registerNames(protoFile *schema.ProtoFile) error {
	for _, msg := range protoFile.Messages {
		if err := r.registerMessage(msg); err != nil {
			return err
		}
	}
	for _, enum := range protoFile.Enums {
		if err := r.registerEnum(enum); err != nil {
			return err
		}
	}
	for _, service := range protoFile.Services {
		fullName := getFullName(protoFile.Package, service.Name)
		if _, exists := r.services[fullName]; exists {
			return errors.Errorf("duplicate service %s", fullName)
		}
		r.services[fullName] = service
	}
	return nil
}

// registerMessage registers msg and its nested types under their full names.
func (r *Registry) registerMessage(msg *schema.Message) error {
	if msg.FullName == "" {
		msg.FullName = msg.Name
	}
	if _, exists := r.messages[msg.FullName]; exists {
		return errors.Errorf("duplicate message %s", msg.FullName)
	}
	if msg.WellKnown == schema.WellKnownNone {
		msg.WellKnown = schema.LookupWellKnown(msg.FullName)
	}
	r.messages[msg.FullName] = msg

	for _, nested := range msg.NestedTypes {
		if nested.FullName == "" {
			nested.FullName = msg.FullName + "." + nested.Name
		}
		if err := r.registerMessage(nested); err != nil {
			return err
		}
	}
	for _, nested := range msg.NestedEnums {
		if nested.FullName == "" {
			nested.FullName = msg.FullName + "." + nested.Name
		}
		if err := r.registerEnum(nested); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) registerEnum(enum *schema.Enum) error {
	if enum.FullName == "" {
		enum.FullName = enum.Name
	}
	if _, exists := r.enums[enum.FullName]; exists {
		return errors.Errorf("duplicate enum %s", enum.FullName)
	}
	if enum.WellKnown == schema.WellKnownNone {
		enum.WellKnown = schema.LookupWellKnown(enum.FullName)
	}
	r.enums[enum.FullName] = enum
	return nil
}

// RegisterMessage adds a hand-built message definition. Nested types are
// registered too. Field type references must already be fully qualified.
func (r *Registry) RegisterMessage(msg *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerMessage(msg)
}

// RegisterEnum adds a hand-built enum definition.
func (r *Registry) RegisterEnum(enum *schema.Enum) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerEnum(enum)
}

func (r *Registry) addProtoDirectory(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.ProtoDirectories {
		if d == dir {
			return
		}
	}
	r.ProtoDirectories = append(r.ProtoDirectories, dir)
}

func getFullName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// GetMessage retrieves a message definition by name. A leading dot is
// ignored; a name without its package matches when it is unambiguous.
func (r *Registry) GetMessage(name string) (*schema.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name = strings.TrimPrefix(name, ".")
	if msg, exists := r.messages[name]; exists {
		return msg, nil
	}
	key, err := suffixMatch(name, r.messages)
	if err != nil {
		return nil, errors.Wrapf(err, "message %s", name)
	}
	return r.messages[key], nil
}

// GetEnum retrieves an enum definition by name
func (r *Registry) GetEnum(name string) (*schema.Enum, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name = strings.TrimPrefix(name, ".")
	if enum, exists := r.enums[name]; exists {
		return enum, nil
	}
	key, err := suffixMatch(name, r.enums)
	if err != nil {
		return nil, errors.Wrapf(err, "enum %s", name)
	}
	return r.enums[key], nil
}

// GetService retrieves a service definition by name
func (r *Registry) GetService(name string) (*schema.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name = strings.TrimPrefix(name, ".")
	if service, exists := r.services[name]; exists {
		return service, nil
	}
	key, err := suffixMatch(name, r.services)
	if err != nil {
		return nil, errors.Wrapf(err, "service %s", name)
	}
	return r.services[key], nil
}

// suffixMatch finds the single key ending in "."+name.
func suffixMatch[T any](name string, m map[string]T) (string, error) {
	var matches []string
	for fullName := range m {
		if strings.HasSuffix(fullName, "."+name) {
			matches = append(matches, fullName)
		}
	}
	switch len(matches) {
	case 0:
		return "", ErrNotFound
	case 1:
		return matches[0], nil
	}
	sort.Strings(matches)
	return "", errors.Errorf("ambiguous name, candidates: %s", strings.Join(matches, ", "))
}

// ListMessages returns all registered message names, sorted. Synthetic map
// entry messages are left out.
func (r *Registry) ListMessages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.messages))
	for name, msg := range r.messages {
		if msg.MapEntry {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListEnums returns all registered enum names, sorted.
func (r *Registry) ListEnums() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.enums))
	for name := range r.enums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListServices returns all registered service names, sorted.
func (r *Registry) ListServices() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProtoFiles returns the loaded files keyed by path.
func (r *Registry) ProtoFiles() map[string]*schema.ProtoFile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*schema.ProtoFile, len(r.repo.ProtoFiles))
	for k, v := range r.repo.ProtoFiles {
		out[k] = v
	}
	return out
}
