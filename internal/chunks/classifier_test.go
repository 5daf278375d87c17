package chunks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		name     string
		context  string
		group    string
		expected string
	}{
		{
			name:     "unscoped package",
			context:  "/app/node_modules/react",
			group:    "vendors",
			expected: "vendors.react",
		},
		{
			name:     "unscoped package nested directory",
			context:  "/app/node_modules/react-dom/cjs",
			group:    "vendors",
			expected: "vendors.react-dom",
		},
		{
			name:     "scoped package keeps remainder",
			context:  "/app/node_modules/@scope/pkgname",
			group:    "vendors",
			expected: "vendors.scope/pkgname",
		},
		{
			name:     "scoped package nested directory",
			context:  "/app/node_modules/@babel/runtime/helpers/esm",
			group:    "vendors",
			expected: "vendors.babel/runtime",
		},
		{
			name:     "windows separators",
			context:  `C:\app\node_modules\lodash\fp`,
			group:    "vendors",
			expected: "vendors.lodash",
		},
		{
			name:     "relative metafile path",
			context:  "node_modules/scheduler",
			group:    "vendors",
			expected: "vendors.scheduler",
		},
		{
			name:     "last node_modules wins",
			context:  "/app/node_modules/.pnpm/react@18.2.0/node_modules/react",
			group:    "vendors",
			expected: "vendors.react",
		},
		{
			name:     "every scope marker removed",
			context:  "/app/node_modules/@we@ird/pkg@next",
			group:    "vendors",
			expected: "vendors.weird/pkgnext",
		},
		{
			name:     "custom group label",
			context:  "/app/node_modules/axios/lib",
			group:    "libs",
			expected: "libs.axios",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Name(tt.context, tt.group)
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
			require.NotContains(t, got, ScopeMarker)
		})
	}
}

func TestName_scopedAndUnscopedCollide(t *testing.T) {
	scoped, err := Name("/app/node_modules/@foo", DefaultVendorGroup)
	require.NoError(t, err)

	unscoped, err := Name("/app/node_modules/foo", DefaultVendorGroup)
	require.NoError(t, err)

	require.Equal(t, "vendors.foo", scoped)
	require.Equal(t, scoped, unscoped)
}

func TestName_outsideNodeModules(t *testing.T) {
	tests := []struct {
		name    string
		context string
	}{
		{name: "application source", context: "/app/src/components"},
		{name: "empty path", context: ""},
		{name: "marker without package", context: "/app/node_modules"},
		{name: "marker without package trailing slash", context: "/app/node_modules/"},
		{name: "marker as substring only", context: "/app/my_node_modules/react"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Name(tt.context, DefaultVendorGroup)
			require.ErrorIs(t, err, ErrNotVendorModule)
			require.Contains(t, err.Error(), tt.context)
			require.Empty(t, got)
		})
	}
}

func TestName_emptyGroup(t *testing.T) {
	_, err := Name("/app/node_modules/react", "")
	require.ErrorIs(t, err, ErrEmptyGroup)
}

func TestIsVendor(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{path: "/app/node_modules/react/index.js", expected: true},
		{path: `C:\app\node_modules\react`, expected: true},
		{path: "node_modules/react", expected: true},
		{path: "/app/node_modules", expected: false},
		{path: "/app/src/index.js", expected: false},
		{path: "/app/node_modules_backup/react", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.expected, IsVendor(tt.path))
		})
	}
}

func TestPackageName(t *testing.T) {
	pkg, err := PackageName("/app/node_modules/@emotion/react/dist")
	require.NoError(t, err)
	require.Equal(t, "@emotion/react", pkg)

	pkg, err = PackageName("/app/node_modules/@lonely")
	require.NoError(t, err)
	require.Equal(t, "@lonely", pkg)

	name, err := Name("/app/node_modules/@lonely", DefaultVendorGroup)
	require.NoError(t, err)
	require.Equal(t, "vendors.lonely", name)
}
