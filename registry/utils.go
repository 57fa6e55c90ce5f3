package registry

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	protoparser "github.com/yoheimuta/go-protoparser/v4"
	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"
	"google.golang.org/protobuf/reflect/protoregistry"

	"github.com/anirudhraja/proto3json/schema"
)

// getAllProtoInfo uses DFS to fetch all the files from all directories passed and stores relevant proto files
func (r *Registry) getAllProtoInfo(protoFile string) ([]string, error) {
	visited := make(map[string]struct{}) // to make sure we don't end up in a loop
	result := make([]string, 0)

	var dfs func(protoFile string) error
	dfs = func(protoFile string) error {
		if _, ok := visited[protoFile]; ok {
			return nil
		}
		visited[protoFile] = struct{}{}
		result = append(result, protoFile)
		if _, ok := r.parsedProtoBody[protoFile]; ok {
			// parsed by an earlier load
			return nil
		}
		protoFileEntity := &protoFileEntity{
			imports: make([]string, 0),
		}

		protoBytes, err := os.ReadFile(protoFile)
		if err != nil {
			return errors.Wrap(err, "failed to read file")
		}
		parsedBody, err := protoparser.Parse(bytes.NewBuffer(protoBytes), protoparser.WithFilename(protoFile))
		if err != nil {
			return errors.Wrapf(err, "failed to parse %s", protoFile)
		}
		r.parsedProtoBody[protoFile] = parsedBody
		for _, body := range parsedBody.ProtoBody {
			switch b := body.(type) {
			case *protoparserparser.Import: // resolve relation for each imports
				importPath := unquote(b.Location)
				if r.isBuiltinImport(importPath) {
					level.Debug(r.logger).Log("msg", "import served by built-in descriptors", "import", importPath, "from", protoFile)
					continue
				}
				fullImportPath, err := r.findIfProtoExists(importPath)
				if err != nil {
					return err
				}
				protoFileEntity.imports = append(protoFileEntity.imports, fullImportPath)
				if err = dfs(fullImportPath); err != nil {
					return err
				}
			}
		}
		r.protoEntities[protoFile] = protoFileEntity
		return nil
	}
	// run dfs on the input proto path
	protoPath, err := r.findIfProtoExists(protoFile)
	if err != nil {
		return nil, err
	}
	if err := dfs(protoPath); err != nil {
		return nil, err
	}
	return result, nil
}

// isBuiltinImport reports whether importPath is already registered from a
// compiled-in descriptor, registering it on first use when the Go protobuf
// runtime knows the file.
func (r *Registry) isBuiltinImport(importPath string) bool {
	if _, ok := r.repo.ProtoFiles[importPath]; ok {
		return true
	}
	if !strings.HasPrefix(importPath, "google/protobuf/") {
		return false
	}
	fd, err := protoregistry.GlobalFiles.FindFileByPath(importPath)
	if err != nil {
		return false
	}
	if err := r.registerFileDescriptor(fd); err != nil {
		level.Warn(r.logger).Log("msg", "failed to register built-in descriptor", "import", importPath, "err", err)
		return false
	}
	return true
}

func (r *Registry) findIfProtoExists(protoPath string) (string, error) {
	var (
		fullPath      string
		fullProtoPath string
		err           error
	)
	protoPath = unquote(protoPath)
	for _, dir := range r.ProtoDirectories {
		fullPath = filepath.Join(dir, protoPath)
		// Check if the path exists
		if _, err = os.Stat(fullPath); err == nil {
			fullProtoPath = fullPath
			break
		}
	}
	if fullProtoPath == "" {
		if _, err = os.Stat(protoPath); err != nil {
			return "", errors.Errorf("path does not exist: %s: %v", protoPath, err)
		}
		fullProtoPath = protoPath
	}
	if !strings.HasSuffix(fullProtoPath, ".proto") {
		return "", errors.Errorf("is not a .proto file %s", fullProtoPath)
	}
	return filepath.Clean(fullProtoPath), nil
}

/*
This helper function will return the entity for any referenced type ,
Be it top/file,nested or imported entities.If not found will return an error
Ref - https://github.com/protocolbuffers/protobuf/blob/b7a5772caf08d62a20fd1bca258f501fa4db022c/src/google/protobuf/descriptor.proto#L186-L191
*/
func getReferencedType(typeName, prefix string, allResolvedEntities map[string]schema.TypeKind) (string, error) {
	// check if fully qualifed prefixed by dot
	if strings.HasPrefix(typeName, ".") {
		return getFullyQualifiedType(typeName, allResolvedEntities)
	}
	// try resolving from inner entities up till the parent package
	if result, ok := splitNameAndCheck(typeName, prefix, allResolvedEntities); ok {
		return result, nil
	}
	//  check if the entity is referenced to other packages via packageName
	if _, ok := allResolvedEntities[typeName]; ok {
		return typeName, nil
	}
	return "", errors.Errorf("unable to resolve type name: %s", typeName)
}

// splitNameAndCheck splits the prefixName and tries to append the typeName and find the entity for resolution
// it also tries the find the entities defined using relative path
func splitNameAndCheck(typeName, prefix string, allResolvedEntities map[string]schema.TypeKind) (string, bool) {
	var (
		prefixSplit []string
		entityName  string
	)
	prefixSplit = strings.Split(prefix, ".")

	for len(prefixSplit) > 0 && prefixSplit[0] != "" {
		result := strings.Join(prefixSplit, ".")
		entityName = result + "." + typeName
		if _, ok := allResolvedEntities[entityName]; ok {
			return entityName, true
		}
		// Omit the last element in each iteration as we go level above to outer entity
		prefixSplit = prefixSplit[:len(prefixSplit)-1]
	}
	return "", false
}

func getFullyQualifiedType(typeName string, allResolvedEntities map[string]schema.TypeKind) (string, error) {
	typeName = strings.TrimPrefix(typeName, ".")
	if _, ok := allResolvedEntities[typeName]; ok {
		return typeName, nil
	}
	return "", errors.Errorf("unable to resolve fully qualified (dot prefixed) type name: %s", typeName)
}

func unquote(s string) string {
	return strings.Trim(s, `"'`)
}

// jsonName derives the default JSON name of a field the way protoc does:
// underscores are dropped and the letter after each one is upper-cased.
func jsonName(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	out := make([]byte, 0, len(s))
	upperNext := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' {
			upperNext = true
			continue
		}
		if upperNext && c >= 'a' && c <= 'z' {
			c = c - 'a' + 'A'
		}
		upperNext = false
		out = append(out, c)
	}
	return string(out)
}
