package runfiles

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RepoMappingKey is the key of an entry in a bzlmod repo mapping. It
// consists of the canonical name of the repository from which a lookup
// is performed, and the apparent name it uses to refer to another
// repository. The main repository has an empty canonical name.
type RepoMappingKey struct {
	SourceRepo string
	RepoAlias  string
}

// RepoMapping translates apparent repository names, as seen from a
// given repository, to the names of directories in the runfiles tree.
type RepoMapping map[RepoMappingKey]string

// repoMappingRunfile is the name of the pseudo-runfile that Bazel
// emits when bzlmod is enabled.
const repoMappingRunfile = "_repo_mapping"

// ParseRepoMapping parses the contents of a "_repo_mapping" file. Each
// line contains the comma separated triple
// "source_repo,repo_alias,target_repo_dir". There is no header and no
// escaping.
func ParseRepoMapping(r io.Reader) (RepoMapping, error) {
	repoMapping := RepoMapping{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		fields := strings.SplitN(scanner.Text(), ",", 3)
		if len(fields) < 3 {
			return nil, status.Errorf(codes.InvalidArgument, "Line %d of repo mapping has %d fields, while 3 were expected", lineNumber, len(fields))
		}
		repoMapping[RepoMappingKey{
			SourceRepo: fields[0],
			RepoAlias:  fields[1],
		}] = fields[2]
	}
	if err := scanner.Err(); err != nil {
		return nil, util.StatusWrapWithCode(err, codes.Internal, "Failed to read repo mapping")
	}
	return repoMapping, nil
}

func readRepoMappingFile(repoMappingPath string) (RepoMapping, error) {
	f, err := os.Open(repoMappingPath)
	if err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to open repo mapping %#v", repoMappingPath)
	}
	defer f.Close()

	repoMapping, err := ParseRepoMapping(f)
	if err != nil {
		return nil, util.StatusWrapf(err, "Repo mapping %#v", repoMappingPath)
	}
	return repoMapping, nil
}
