/*
Copyright (C) 2024  Carl-Philip Hänsch

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

import "os"

// FileEngine stores the retentive document as a single JSON file,
// rescuing the previous copy to a ".old" sibling before overwriting -
// the same crash-safety idiom as storage.FileStorage.WriteSchema.
type FileEngine struct {
	path string
}

// FileFactory opens FileEngine instances rooted at Basepath, one file
// per save slot, mirroring storage.FileFactory.
type FileFactory struct {
	Basepath string
}

func (f *FileFactory) Open(name string) Engine {
	return &FileEngine{path: f.Basepath + "/" + name + ".json"}
}

func (e *FileEngine) Read() ([]byte, error) {
	raw, err := os.ReadFile(e.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		raw, err = os.ReadFile(e.path + ".old")
		if err != nil {
			return nil, nil
		}
	}
	return raw, nil
}

func (e *FileEngine) Write(data []byte) error {
	if stat, err := os.Stat(e.path); err == nil && stat.Size() > 0 {
		os.Rename(e.path, e.path+".old")
	}
	f, err := os.Create(e.path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

func (e *FileEngine) Remove() error {
	os.Remove(e.path + ".old")
	return os.Remove(e.path)
}
