package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesAreOrdered(t *testing.T) {
	names, err := Files()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.True(t, strings.HasPrefix(names[0], "001_"))
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

// The backend client addresses these relations by name.
func TestSchemaDefinesRelations(t *testing.T) {
	names, err := Files()
	require.NoError(t, err)
	var all strings.Builder
	for _, name := range names {
		data, err := fs.ReadFile(FS, name)
		require.NoError(t, err)
		all.Write(data)
	}
	schema := all.String()

	for _, relation := range []string{
		"public.products",
		"public.categories",
		"public.reviews",
		"public.contact_messages",
		"public.admin_users",
		"function public.check_admin_status(user_id uuid)",
	} {
		assert.Contains(t, schema, relation)
	}
	assert.Contains(t, schema, "security definer")
}
