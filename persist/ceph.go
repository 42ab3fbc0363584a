//go:build ceph

/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package persist

import (
	"path"
	"strings"
	"sync"

	"github.com/ceph/go-ceph/rados"
)

// CephFactory opens CephEngine instances against one RADOS pool,
// adapted from storage.CephFactory/CephStorage's ReadSchema/WriteSchema
// pair, narrowed to one object per save slot.
type CephFactory struct {
	UserName    string
	ClusterName string
	ConfFile    string
	Pool        string
	Prefix      string
}

func (f *CephFactory) Open(name string) Engine {
	pfx := path.Join(strings.TrimSuffix(f.Prefix, "/"), name+".json")
	return &CephEngine{factory: f, obj: pfx}
}

type CephEngine struct {
	factory *CephFactory
	obj     string

	mu     sync.Mutex
	conn   *rados.Conn
	ioctx  *rados.IOContext
	opened bool
}

func (e *CephEngine) ensureOpen() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opened {
		return
	}
	conn, err := rados.NewConnWithClusterAndUser(e.factory.ClusterName, e.factory.UserName)
	if err != nil {
		panic(err)
	}
	if e.factory.ConfFile != "" {
		if err := conn.ReadConfigFile(e.factory.ConfFile); err != nil {
			panic(err)
		}
	} else {
		_ = conn.ReadDefaultConfigFile()
	}
	if err := conn.Connect(); err != nil {
		panic(err)
	}
	ioctx, err := conn.OpenIOContext(e.factory.Pool)
	if err != nil {
		conn.Shutdown()
		panic(err)
	}
	e.conn = conn
	e.ioctx = ioctx
	e.opened = true
}

func (e *CephEngine) Read() ([]byte, error) {
	e.ensureOpen()
	stat, err := e.ioctx.Stat(e.obj)
	if err != nil {
		return nil, nil
	}
	data := make([]byte, stat.Size)
	n, err := e.ioctx.Read(e.obj, data, 0)
	if err != nil {
		return nil, nil
	}
	return data[:n], nil
}

func (e *CephEngine) Write(data []byte) error {
	e.ensureOpen()
	return e.ioctx.WriteFull(e.obj, data)
}

func (e *CephEngine) Remove() error {
	e.ensureOpen()
	return e.ioctx.Delete(e.obj)
}
