package validator

import "mercator-hq/importcheck/pkg/imports/schema"

// Node type names of the 2.0 export schema.
const (
	TypeRoot             = "zabbix_export"
	TypeGroup            = "group"
	TypeHost             = "host"
	TypeInterface        = "interface"
	TypeItem             = "item"
	TypeTemplate         = "template"
	TypeTrigger          = "trigger"
	TypeGraph            = "graph"
	TypeGraphItem        = "graph_item"
	TypeGraphItemRef     = "graph_item_ref"
	TypeScreen           = "screen"
	TypeScreenItem       = "screen_item"
	TypeImage            = "image"
	TypeMacro            = "macro"
	TypeApplication      = "application"
	TypeLinkedTemplate   = "linked_template"
	TypeInventory        = "inventory"
	TypeDiscoveryRule    = "discovery_rule"
	TypeItemPrototype    = "item_prototype"
	TypeTriggerPrototype = "trigger_prototype"
	TypeGraphPrototype   = "graph_prototype"
	TypeHostPrototype    = "host_prototype"
	TypeGroupLink        = "group_link"
	TypeGroupLinkGroup   = "group_link_group"
	TypeGroupPrototype   = "group_prototype"
	TypeMaps             = "maps"
)

const (
	opt = schema.Constraint(0)
	req = schema.Required
	str = schema.String
	arr = schema.Array
	rs  = req | str
	ra  = req | arr
)

func list(field, tag, nodeType string) Child {
	return Child{Field: field, Tag: tag, Type: nodeType, Kind: ChildList}
}

func single(field, nodeType string) Child {
	return Child{Field: field, Type: nodeType, Kind: ChildSingle}
}

var itemRules = schema.RuleSet{
	{"name", rs},
	{"type", rs},
	{"snmp_community", rs},
	{"multiplier", rs},
	{"snmp_oid", rs},
	{"key", rs},
	{"delay", rs},
	{"history", rs},
	{"trends", rs},
	{"status", rs},
	{"value_type", rs},
	{"allowed_hosts", opt},
	{"units", rs},
	{"delta", rs},
	{"snmpv3_contextname", str},
	{"snmpv3_securityname", rs},
	{"snmpv3_securitylevel", rs},
	{"snmpv3_authprotocol", str},
	{"snmpv3_authpassphrase", rs},
	{"snmpv3_privprotocol", opt},
	{"snmpv3_privpassphrase", rs},
	{"formula", rs},
	{"delay_flex", rs},
	{"params", rs},
	{"ipmi_sensor", rs},
	{"data_type", rs},
	{"authtype", rs},
	{"username", rs},
	{"password", rs},
	{"publickey", rs},
	{"privatekey", rs},
	{"port", rs},
	{"description", rs},
	{"inventory_link", rs},
	{"applications", arr},
	{"valuemap", arr},
	{"logtimefmt", str},
	{"interface_ref", str},
}

var triggerPrototypeRules = schema.RuleSet{
	{"expression", rs},
	{"name", rs},
	{"url", rs},
	{"status", rs},
	{"priority", rs},
	{"description", rs},
	{"type", rs},
}

var triggerRules = append(append(schema.RuleSet{}, triggerPrototypeRules...), schema.Rule{Field: "dependencies", Constraint: ra})

var graphRules = schema.RuleSet{
	{"name", rs},
	{"width", rs},
	{"height", rs},
	{"yaxismin", rs},
	{"yaxismax", rs},
	{"show_work_period", rs},
	{"show_triggers", rs},
	{"type", rs},
	{"show_legend", rs},
	{"show_3d", rs},
	{"percent_left", rs},
	{"percent_right", rs},
	{"ymin_item_1", opt},
	{"ymin_type_1", rs},
	{"ymax_item_1", opt},
	{"ymax_type_1", rs},
	{"graph_items", arr},
}

var inventoryFields = []string{
	"inventory_mode", "type", "type_full", "name", "alias", "os", "os_full", "os_short",
	"serialno_a", "serialno_b", "tag", "asset_tag", "macaddress_a", "macaddress_b",
	"hardware", "hardware_full", "software", "software_full",
	"software_app_a", "software_app_b", "software_app_c", "software_app_d", "software_app_e",
	"contact", "location", "location_lat", "location_lon", "notes", "chassis", "model",
	"hw_arch", "vendor", "contract_number", "installer_name", "deployment_status",
	"url_a", "url_b", "url_c", "host_networks", "host_netmask", "host_router",
	"oob_ip", "oob_netmask", "oob_router",
	"date_hw_purchase", "date_hw_install", "date_hw_expiry", "date_hw_decomm",
	"site_address_a", "site_address_b", "site_address_c", "site_city", "site_state",
	"site_country", "site_zip", "site_rack", "site_notes",
	"poc_1_name", "poc_1_email", "poc_1_phone_a", "poc_1_phone_b", "poc_1_cell", "poc_1_screen", "poc_1_notes",
	"poc_2_name", "poc_2_email", "poc_2_phone_a", "poc_2_phone_b", "poc_2_cell", "poc_2_screen", "poc_2_notes",
}

func requiredStrings(fields []string) schema.RuleSet {
	rules := make(schema.RuleSet, len(fields))
	for i, f := range fields {
		rules[i] = schema.Rule{Field: f, Constraint: rs}
	}
	return rules
}

// V20 is the Zabbix 2.0 export schema.
var V20 = MustRegistry(TypeRoot,
	&NodeType{
		Name: TypeRoot,
		Rules: schema.RuleSet{
			{"groups", arr},
			{"hosts", arr},
			{"templates", arr},
			{"triggers", arr},
			{"graphs", arr},
			{"screens", arr},
			{"images", arr},
			{"maps", arr},
		},
		Children: []Child{
			list("groups", "group", TypeGroup),
			list("hosts", "host", TypeHost),
			list("templates", "template", TypeTemplate),
			list("triggers", "trigger", TypeTrigger),
			list("graphs", "graph", TypeGraph),
			list("screens", "screen", TypeScreen),
			list("images", "image", TypeImage),
			single("maps", TypeMaps),
		},
	},
	&NodeType{
		Name:  TypeGroup,
		Rules: schema.RuleSet{{"name", rs}},
	},
	&NodeType{
		Name: TypeHost,
		Rules: schema.RuleSet{
			{"host", rs},
			{"name", rs},
			{"description", str},
			{"proxy", str},
			{"status", rs},
			{"ipmi_authtype", rs},
			{"ipmi_privilege", rs},
			{"ipmi_username", rs},
			{"ipmi_password", rs},
			{"templates", arr},
			{"groups", ra},
			{"interfaces", arr},
			{"applications", arr},
			{"items", arr},
			{"discovery_rules", arr},
			{"macros", arr},
			{"inventory", arr},
		},
		Children: []Child{
			list("groups", "group", TypeGroup),
			list("interfaces", "interface", TypeInterface),
			list("items", "item", TypeItem),
			list("templates", "template", TypeLinkedTemplate),
			list("graphs", "graph", TypeGraph),
			list("macros", "macro", TypeMacro),
			list("applications", "application", TypeApplication),
			{Field: "inventory", Type: TypeInventory, Kind: ChildSingle, SkipEmpty: true},
			list("discovery_rules", "discovery_rule", TypeDiscoveryRule),
		},
	},
	&NodeType{
		Name: TypeInterface,
		Rules: schema.RuleSet{
			{"default", rs},
			{"type", rs},
			{"useip", rs},
			{"ip", str},
			{"dns", str},
			{"port", rs},
			{"bulk", str},
			{"interface_ref", rs},
		},
		Closed: true,
	},
	&NodeType{
		Name:     TypeItem,
		Rules:    itemRules,
		Closed:   true,
		Children: []Child{list("applications", "application", TypeApplication)},
	},
	&NodeType{
		Name: TypeTemplate,
		Rules: schema.RuleSet{
			{"template", rs},
			{"name", rs},
			{"description", str},
			{"templates", arr},
			{"groups", ra},
			{"applications", arr},
			{"items", arr},
			{"discovery_rules", arr},
			{"macros", arr},
			{"screens", arr},
		},
		Children: []Child{
			list("groups", "group", TypeGroup),
			list("items", "item", TypeItem),
			list("templates", "template", TypeLinkedTemplate),
			list("graphs", "graph", TypeGraph),
			list("macros", "macro", TypeMacro),
			list("screens", "screen", TypeScreen),
			list("applications", "application", TypeApplication),
		},
	},
	&NodeType{
		Name:   TypeTrigger,
		Rules:  triggerRules,
		Closed: true,
	},
	&NodeType{
		Name:     TypeGraph,
		Rules:    graphRules,
		Closed:   true,
		Children: []Child{list("graph_items", "graph_item", TypeGraphItem)},
	},
	&NodeType{
		Name: TypeGraphItem,
		Rules: schema.RuleSet{
			{"sortorder", rs},
			{"drawtype", rs},
			{"color", rs},
			{"yaxisside", rs},
			{"calc_fnc", rs},
			{"type", rs},
			{"item", ra},
		},
		Closed:   true,
		Children: []Child{single("item", TypeGraphItemRef)},
	},
	&NodeType{
		Name:   TypeGraphItemRef,
		Rules:  schema.RuleSet{{"host", rs}, {"key", rs}},
		Closed: true,
	},
	&NodeType{
		Name: TypeScreen,
		Rules: schema.RuleSet{
			{"name", rs},
			{"hsize", rs},
			{"vsize", rs},
			{"screen_items", arr},
		},
		Closed: true,
		Children: []Child{{
			Field:     "screen_items",
			Tag:       "screen_item",
			Type:      TypeScreenItem,
			Kind:      ChildList,
			PathField: "screenitems",
			PathTag:   "screenitem",
		}},
	},
	&NodeType{
		Name: TypeScreenItem,
		Rules: schema.RuleSet{
			{"resourcetype", rs},
			{"resource", req},
			{"width", rs},
			{"height", rs},
			{"x", rs},
			{"y", rs},
			{"colspan", rs},
			{"rowspan", rs},
			{"elements", rs},
			{"valign", rs},
			{"halign", rs},
			{"style", rs},
			{"dynamic", rs},
			{"url", str},
			{"application", str},
			{"max_columns", str},
		},
	},
	&NodeType{
		Name:   TypeImage,
		Rules:  schema.RuleSet{{"name", rs}, {"imagetype", rs}, {"encodedImage", rs}},
		Closed: true,
	},
	&NodeType{
		Name:   TypeMacro,
		Rules:  schema.RuleSet{{"macro", rs}, {"value", rs}},
		Closed: true,
	},
	&NodeType{
		Name:   TypeApplication,
		Rules:  schema.RuleSet{{"name", rs}},
		Closed: true,
	},
	&NodeType{
		Name:   TypeLinkedTemplate,
		Rules:  schema.RuleSet{{"name", rs}},
		Closed: true,
	},
	&NodeType{
		Name:   TypeInventory,
		Rules:  requiredStrings(inventoryFields),
		Closed: true,
	},
	&NodeType{
		Name: TypeDiscoveryRule,
		Rules: schema.RuleSet{
			{"name", rs},
			{"type", rs},
			{"snmp_community", rs},
			{"snmp_oid", rs},
			{"key", rs},
			{"delay", rs},
			{"status", rs},
			{"allowed_hosts", rs},
			{"snmpv3_contextname", str},
			{"snmpv3_securityname", rs},
			{"snmpv3_securitylevel", rs},
			{"snmpv3_authprotocol", str},
			{"snmpv3_authpassphrase", rs},
			{"snmpv3_privprotocol", opt},
			{"snmpv3_privpassphrase", rs},
			{"delay_flex", rs},
			{"params", rs},
			{"ipmi_sensor", rs},
			{"authtype", rs},
			{"username", rs},
			{"password", rs},
			{"publickey", rs},
			{"privatekey", rs},
			{"port", rs},
			{"filter", req},
			{"lifetime", rs},
			{"description", rs},
			{"interface_ref", rs},
			{"item_prototypes", ra},
			{"trigger_prototypes", ra},
			{"graph_prototypes", ra},
			{"host_prototypes", arr},
		},
		Children: []Child{
			list("item_prototypes", "item_prototype", TypeItemPrototype),
			list("trigger_prototypes", "trigger_prototype", TypeTriggerPrototype),
			list("graph_prototypes", "graph_prototype", TypeGraphPrototype),
			list("host_prototypes", "host_prototype", TypeHostPrototype),
		},
	},
	&NodeType{
		Name:   TypeItemPrototype,
		Rules:  itemRules,
		Closed: true,
	},
	&NodeType{
		Name:   TypeTriggerPrototype,
		Rules:  triggerPrototypeRules,
		Closed: true,
	},
	&NodeType{
		Name:     TypeGraphPrototype,
		Rules:    graphRules,
		Closed:   true,
		Children: []Child{list("graph_items", "graph_item", TypeGraphItem)},
	},
	&NodeType{
		Name: TypeHostPrototype,
		Rules: schema.RuleSet{
			{"host", rs},
			{"name", rs},
			{"status", rs},
			{"group_links", ra},
			{"group_prototypes", ra},
			{"templates", ra},
		},
		Children: []Child{
			list("group_links", "group_link", TypeGroupLink),
			// Both branches are gated on templates, not only the second.
			{Field: "group_prototypes", Tag: "group_prototype", Type: TypeGroupPrototype, Kind: ChildList, Gate: "templates"},
			{Field: "templates", Tag: "template", Type: TypeLinkedTemplate, Kind: ChildList, Gate: "templates"},
		},
	},
	&NodeType{
		Name:     TypeGroupLink,
		Elements: &Child{Tag: "group", Type: TypeGroupLinkGroup, Kind: ChildList},
	},
	&NodeType{
		Name:   TypeGroupLinkGroup,
		Rules:  schema.RuleSet{{"name", rs}},
		Closed: true,
	},
	&NodeType{
		Name:   TypeGroupPrototype,
		Rules:  schema.RuleSet{{"name", rs}},
		Closed: true,
	},
	&NodeType{
		Name:        TypeMaps,
		PassThrough: true,
	},
)
