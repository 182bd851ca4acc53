// Copyright © 2018-2020 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import "github.com/shenwei356/xopen"

// outStream opens file for writing, the same way unikmer/cmd/count.go
// opens its primary output stream: "-" (or "") means stdout, ".gz"
// means transparently gzip-compressed, and the returned *xopen.Writer
// is its own io.Closer.
func outStream(file string) (*xopen.Writer, error) {
	if file == "" {
		file = "-"
	}
	return xopen.Wopen(file)
}

// inStream opens file for reading, "-" (or "") for stdin, sniffing the
// stream's magic bytes to transparently gunzip regardless of file
// extension — the same contract as unikmer/cmd/*.go's xopen.Ropen use.
func inStream(file string) (*xopen.Reader, error) {
	if file == "" {
		file = "-"
	}
	return xopen.Ropen(file)
}
