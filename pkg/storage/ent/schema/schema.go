// Package entschema declares the folio tables for ent's schema migrator.
package entschema

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	WikisTableName        = "wikis"
	WikiMembersTableName  = "wiki_members"
	DocumentsTableName    = "documents"
	DocumentTagsTableName = "document_tags"
	TagsTableName         = "tags"
)

var (
	// WikisColumns holds the columns for the "wikis" table.
	WikisColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeTime},
	}
	// WikisTable holds the schema information for the "wikis" table.
	WikisTable = &schema.Table{
		Name:       WikisTableName,
		Columns:    WikisColumns,
		PrimaryKey: []*schema.Column{WikisColumns[0]},
	}

	// WikiMembersColumns holds the columns for the "wiki_members" table.
	WikiMembersColumns = []*schema.Column{
		{Name: "wiki_id", Type: field.TypeString},
		{Name: "member_id", Type: field.TypeString},
	}
	// WikiMembersTable holds the schema information for the "wiki_members" table.
	WikiMembersTable = &schema.Table{
		Name:       WikiMembersTableName,
		Columns:    WikiMembersColumns,
		PrimaryKey: []*schema.Column{WikiMembersColumns[0], WikiMembersColumns[1]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "wiki_members_wikis_members",
				Columns:    []*schema.Column{WikiMembersColumns[0]},
				RefColumns: []*schema.Column{WikisColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	// DocumentsColumns holds the columns for the "documents" table.
	DocumentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "wiki_id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "body", Type: field.TypeString, Size: 2147483647},
		{Name: "embedding", Type: field.TypeBytes, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// DocumentsTable holds the schema information for the "documents" table.
	DocumentsTable = &schema.Table{
		Name:       DocumentsTableName,
		Columns:    DocumentsColumns,
		PrimaryKey: []*schema.Column{DocumentsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "documents_wikis_documents",
				Columns:    []*schema.Column{DocumentsColumns[1]},
				RefColumns: []*schema.Column{WikisColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "document_wiki_id_created_at",
				Unique:  false,
				Columns: []*schema.Column{DocumentsColumns[1], DocumentsColumns[5]},
			},
		},
	}

	// DocumentTagsColumns holds the columns for the "document_tags" table.
	DocumentTagsColumns = []*schema.Column{
		{Name: "document_id", Type: field.TypeString},
		{Name: "tag_id", Type: field.TypeString},
		{Name: "position", Type: field.TypeInt, Default: 0},
	}
	// DocumentTagsTable holds the schema information for the "document_tags" table.
	DocumentTagsTable = &schema.Table{
		Name:       DocumentTagsTableName,
		Columns:    DocumentTagsColumns,
		PrimaryKey: []*schema.Column{DocumentTagsColumns[0], DocumentTagsColumns[1]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "document_tags_documents_tags",
				Columns:    []*schema.Column{DocumentTagsColumns[0]},
				RefColumns: []*schema.Column{DocumentsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "documenttag_tag_id",
				Unique:  false,
				Columns: []*schema.Column{DocumentTagsColumns[1]},
			},
		},
	}

	// TagsColumns holds the columns for the "tags" table.
	TagsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString, Unique: true},
		{Name: "color_fg", Type: field.TypeString},
		{Name: "color_bg", Type: field.TypeString},
	}
	// TagsTable holds the schema information for the "tags" table.
	TagsTable = &schema.Table{
		Name:       TagsTableName,
		Columns:    TagsColumns,
		PrimaryKey: []*schema.Column{TagsColumns[0]},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		WikisTable,
		WikiMembersTable,
		DocumentsTable,
		DocumentTagsTable,
		TagsTable,
	}
)

func init() {
	WikiMembersTable.ForeignKeys[0].RefTable = WikisTable
	DocumentsTable.ForeignKeys[0].RefTable = WikisTable
	DocumentTagsTable.ForeignKeys[0].RefTable = DocumentsTable
}
