/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	Version, Commit, Date = "1.2.3", "", ""
	info := Info()
	if !strings.HasPrefix(info, "1.2.3 ") {
		t.Errorf("Info() = %q, want version prefix", info)
	}
	if !strings.Contains(info, "commit: unknown") {
		t.Errorf("Info() = %q, want unknown commit", info)
	}

	Commit, Date = "abc1234", "2026-01-02T03:04:05Z"
	info = Info()
	if !strings.Contains(info, "commit: abc1234") || !strings.Contains(info, "built: 2026-01-02T03:04:05Z") {
		t.Errorf("Info() = %q", info)
	}
}

func TestMap(t *testing.T) {
	m := Map()
	for _, key := range []string{"version", "commit", "date", "go"} {
		if _, ok := m[key]; !ok {
			t.Errorf("Map() missing key %q", key)
		}
	}
	if m["version"] != Version {
		t.Errorf("Map()[version] = %q, want %q", m["version"], Version)
	}
}
